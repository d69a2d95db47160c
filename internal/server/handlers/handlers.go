// Package handlers provides HTTP request handlers for the storefront API.
package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/storefront/internal/directory"
	"github.com/agentstation/storefront/internal/normalize"
	"github.com/agentstation/storefront/internal/reviews"
	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Service is the read and submit surface the handlers expose.
type Service interface {
	Stores(ctx context.Context) ([]normalize.StoreRecord, error)
	Reviews(ctx context.Context, storeName string) ([]normalize.ReviewRecord, error)
	Directory(ctx context.Context) (*directory.Directory, error)
	SubmitReview(ctx context.Context, f reviews.Fields, img *reviews.Image) (*reviews.Result, error)
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	svc Service
}

// New creates a new Handlers instance.
func New(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// fail logs err with whatever upstream context it carries and writes the
// mapped error response.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := response.StatusOf(err)

	event := logging.Ctx(r.Context()).Error()
	if status < http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Warn()
	}

	var (
		ue *errors.UpstreamError
		ae *errors.AuthError
	)
	switch {
	case errors.As(err, &ue):
		event = event.Str("endpoint", ue.Endpoint).Int("upstream_status", ue.StatusCode)
	case errors.As(err, &ae):
		event = event.Str("endpoint", ae.Endpoint).Int("upstream_status", ae.StatusCode)
	}
	event.Err(err).Int("status", status).Msg(message)

	response.Error(w, message, err)
}
