// Package directory serves the store and review read models. It fetches
// raw reports, normalizes them and optionally caches the result for a
// short time.
package directory

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/storefront/internal/cache"
	"github.com/agentstation/storefront/internal/creator"
	"github.com/agentstation/storefront/internal/normalize"
	"github.com/agentstation/storefront/internal/reviews"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Reports is the part of creator.Client the service reads through.
type Reports interface {
	FetchReport(ctx context.Context, report, criteria string) ([]creator.Record, error)
	FetchReports(ctx context.Context, queries ...creator.Query) ([][]creator.Record, error)
}

// Submitter accepts new reviews.
type Submitter interface {
	Submit(ctx context.Context, f reviews.Fields, img *reviews.Image) (*reviews.Result, error)
}

// Config names the reports and sets the cache lifetime. A zero CacheTTL
// disables caching.
type Config struct {
	StoreReport  string
	ReviewReport string
	CacheTTL     time.Duration
}

// Directory is the combined store and review listing.
type Directory struct {
	Stores  []normalize.StoreWithReviews `json:"stores"`
	Reviews []normalize.ReviewRecord     `json:"reviews"`
}

// Service implements the read and submit operations behind the HTTP API.
type Service struct {
	reports   Reports
	submitter Submitter
	cfg       Config
	cache     *cache.Cache[any]
}

// New creates a Service.
func New(reports Reports, submitter Submitter, cfg Config) *Service {
	if cfg.StoreReport == "" {
		cfg.StoreReport = constants.DefaultStoreReport
	}
	if cfg.ReviewReport == "" {
		cfg.ReviewReport = constants.DefaultReviewReport
	}
	s := &Service{reports: reports, submitter: submitter, cfg: cfg}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New[any](cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return s
}

// Stores lists every store.
func (s *Service) Stores(ctx context.Context) ([]normalize.StoreRecord, error) {
	return cached(s, "stores", func() ([]normalize.StoreRecord, error) {
		raw, err := s.reports.FetchReport(ctx, s.cfg.StoreReport, "")
		if err != nil {
			return nil, err
		}
		return normalize.Stores(raw), nil
	})
}

// Reviews lists the reviews of the store named storeName. A store with no
// reviews yields an empty slice.
func (s *Service) Reviews(ctx context.Context, storeName string) ([]normalize.ReviewRecord, error) {
	if strings.TrimSpace(storeName) == "" {
		return nil, errors.NewValidationError("store_name", storeName, "is required")
	}

	return cached(s, "reviews:"+storeName, func() ([]normalize.ReviewRecord, error) {
		raw, err := s.reports.FetchReport(ctx, s.cfg.ReviewReport, creator.Equals("Store.first_name", storeName))
		if err != nil {
			return nil, err
		}
		all := normalize.Reviews(raw)
		matched := normalize.MatchReviews(storeName, all)
		if dropped := len(all) - len(matched); dropped > 0 {
			logging.Ctx(ctx).Debug().
				Int("dropped", dropped).
				Str("store_name", storeName).
				Msg("discarded reviews not matching store name exactly")
		}
		return matched, nil
	})
}

// Directory fetches both reports concurrently and joins reviews to stores.
// If either fetch fails the whole call fails.
func (s *Service) Directory(ctx context.Context) (*Directory, error) {
	return cached(s, "directory", func() (*Directory, error) {
		res, err := s.reports.FetchReports(ctx,
			creator.Query{Report: s.cfg.StoreReport},
			creator.Query{Report: s.cfg.ReviewReport},
		)
		if err != nil {
			return nil, err
		}
		stores := normalize.Stores(res[0])
		revs := normalize.Reviews(res[1])
		return &Directory{
			Stores:  normalize.Attach(stores, revs),
			Reviews: revs,
		}, nil
	})
}

// SubmitReview forwards a review and drops cached listings so the new
// review shows up on the next read.
func (s *Service) SubmitReview(ctx context.Context, f reviews.Fields, img *reviews.Image) (*reviews.Result, error) {
	res, err := s.submitter.Submit(ctx, f, img)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return res, nil
}

func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		s.cache.Set(key, v)
	}
	return v, nil
}
