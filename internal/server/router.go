package server

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/agentstation/storefront/internal/server/middleware"
	"github.com/agentstation/storefront/internal/server/response"
)

// Router is a ServeMux that refuses duplicate registrations and answers
// unknown routes and methods with JSON errors.
type Router struct {
	mux     *http.ServeMux
	rec     middleware.Recorder
	methods map[string][]string // path -> registered methods
}

// NewRouter creates an empty router. rec may be nil.
func NewRouter(rec middleware.Recorder) *Router {
	rt := &Router{
		mux:     http.NewServeMux(),
		rec:     rec,
		methods: make(map[string][]string),
	}
	rt.mux.Handle("/", middleware.Instrument(rec, "unmatched")(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r.URL.Path)
		})))
	return rt
}

// Handle registers h for method and path. Registering the same method and
// path twice is an error.
func (rt *Router) Handle(method, path string, h http.HandlerFunc) error {
	method = strings.ToUpper(method)
	if slices.Contains(rt.methods[path], method) {
		return fmt.Errorf("duplicate route %s %s", method, path)
	}

	pattern := method + " " + path
	rt.mux.Handle(pattern, middleware.Instrument(rt.rec, pattern)(h))

	if _, known := rt.methods[path]; !known {
		rt.mux.HandleFunc(path, rt.methodNotAllowed(path))
	}
	rt.methods[path] = append(rt.methods[path], method)
	return nil
}

func (rt *Router) methodNotAllowed(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", strings.Join(rt.methods[path], ", "))
		response.MethodNotAllowed(w, r.Method)
	}
}

// Routes lists registered routes as "METHOD path", sorted.
func (rt *Router) Routes() []string {
	var out []string
	for path, methods := range rt.methods {
		for _, m := range methods {
			out = append(out, m+" "+path)
		}
	}
	slices.Sort(out)
	return out
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

type route struct {
	method, path string
	handler      http.HandlerFunc
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(rt *Router) error {
	routes := []route{
		{http.MethodGet, "/health", s.handlers.HandleHealth},
		{http.MethodGet, "/api/stores", s.handlers.HandleListStores},
		{http.MethodGet, "/api/reviews", s.handlers.HandleListReviews},
		{http.MethodPost, "/api/reviews", s.handlers.HandleSubmitReview},
		{http.MethodGet, "/api/directory", s.handlers.HandleDirectory},
	}
	if s.metrics != nil {
		routes = append(routes, route{http.MethodGet, "/metrics", s.metrics.Handler().ServeHTTP})
	}

	for _, r := range routes {
		if err := rt.Handle(r.method, r.path, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// applyMiddleware wraps handler with the middleware chain. The request
// budget is innermost so it covers only handler work.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = s.config.CORSOrigins

	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logger(s.logger),
		middleware.CORS(cors),
		middleware.Timeout(s.config.RequestTimeout),
	)(handler)
}
