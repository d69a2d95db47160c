package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/agentstation/storefront/internal/reviews"
	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// HandleListReviews handles GET /api/reviews?store_name=X. A missing
// store_name is rejected before any upstream call.
func (h *Handlers) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	storeName := r.URL.Query().Get("store_name")
	if storeName == "" {
		response.BadRequest(w, "Missing store_name query parameter", nil)
		return
	}

	list, err := h.svc.Reviews(r.Context(), storeName)
	if err != nil {
		h.fail(w, r, "Failed to fetch review data", err)
		return
	}
	response.OK(w, list)
}

// HandleSubmitReview handles POST /api/reviews with multipart fields Store,
// Customer, Review, Rating and an optional Image file.
func (h *Handlers) HandleSubmitReview(w http.ResponseWriter, r *http.Request) {
	fields, img, err := readSubmission(w, r)
	if err != nil {
		h.fail(w, r, "Invalid review submission", err)
		return
	}

	res, err := h.svc.SubmitReview(r.Context(), fields, img)
	if err != nil {
		h.fail(w, r, "Upload failed", err)
		return
	}
	response.Created(w, res)
}

func readSubmission(w http.ResponseWriter, r *http.Request) (reviews.Fields, *reviews.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxMultipartMemory)

	err := r.ParseMultipartForm(constants.MaxMultipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return reviews.Fields{}, nil, errors.NewValidationError("", nil,
				fmt.Sprintf("request body exceeds %d MiB", constants.MaxMultipartMemory>>20))
		}
		return reviews.Fields{}, nil, errors.WrapValidation("", err)
	}

	fields := reviews.Fields{
		Store:    r.FormValue("Store"),
		Customer: r.FormValue("Customer"),
		Review:   r.FormValue("Review"),
		Rating:   r.FormValue("Rating"),
	}
	if fields.Customer == "" {
		fields.Customer = r.FormValue("Customer_name")
	}

	img, err := readImage(r)
	if err != nil {
		return reviews.Fields{}, nil, err
	}
	return fields, img, nil
}

// readImage returns nil when no Image part was sent. It reads one byte past
// the size cap so oversized uploads are caught by validation.
func readImage(r *http.Request) (*reviews.Image, error) {
	file, header, err := r.FormFile("Image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapValidation("Image", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxImageSize+1))
	if err != nil {
		return nil, errors.WrapValidation("Image", err)
	}
	return &reviews.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
