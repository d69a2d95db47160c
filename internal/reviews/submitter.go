// Package reviews validates review submissions and forwards them to the
// platform's review form.
package reviews

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentstation/storefront/internal/creator"
	"github.com/agentstation/storefront/internal/normalize"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// SuccessMessage is returned with every accepted submission.
const SuccessMessage = "Review submitted successfully"

// FormSubmitter is the part of creator.Client the submitter needs.
type FormSubmitter interface {
	SubmitForm(ctx context.Context, form string, payload any, file *creator.Upload) (*creator.FormResult, error)
}

// Fields are the raw submitted values, exactly as received.
type Fields struct {
	Store    string
	Customer string
	Review   string
	Rating   string
}

// Image is an optional uploaded photo.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is a validated review.
type Submission struct {
	StoreID  string
	Customer string
	Review   string
	Rating   int
	Image    *Image
}

// Result echoes an accepted submission with the upstream record ID.
type Result struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Store    string `json:"store"`
	Customer string `json:"customer"`
	Review   string `json:"review"`
	Rating   int    `json:"rating"`
	HasImage bool   `json:"hasImage"`
}

// Submitter forwards validated reviews upstream.
type Submitter struct {
	forms FormSubmitter
	form  string
}

// NewSubmitter creates a submitter posting to form.
func NewSubmitter(forms FormSubmitter, form string) *Submitter {
	if form == "" {
		form = constants.DefaultReviewForm
	}
	return &Submitter{forms: forms, form: form}
}

// Validate checks fields and image without any network access.
func Validate(f Fields, img *Image) (Submission, error) {
	sub := Submission{
		StoreID:  strings.TrimSpace(f.Store),
		Customer: strings.TrimSpace(f.Customer),
		Review:   strings.TrimSpace(f.Review),
	}
	rating := strings.TrimSpace(f.Rating)

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"Store", sub.StoreID},
		{"Customer", sub.Customer},
		{"Review", sub.Review},
		{"Rating", rating},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	switch len(missing) {
	case 0:
	case 1:
		return Submission{}, errors.NewValidationError(missing[0], nil, "is required")
	default:
		return Submission{}, errors.NewValidationError("", missing, "missing required fields: "+strings.Join(missing, ", "))
	}

	// Integral decimals such as "4.0" are accepted; "4.5" is not.
	n, ok := normalize.AsInt(rating)
	if !ok {
		return Submission{}, errors.NewValidationError("Rating", f.Rating, "must be an integer")
	}
	if n < constants.MinRating || n > constants.MaxRating {
		return Submission{}, errors.NewValidationError("Rating", n,
			fmt.Sprintf("must be between %d and %d", constants.MinRating, constants.MaxRating))
	}
	sub.Rating = n

	if img != nil && len(img.Data) > 0 {
		if err := validateImage(img); err != nil {
			return Submission{}, err
		}
		sub.Image = img
	}
	return sub, nil
}

func validateImage(img *Image) error {
	if len(img.Data) > constants.MaxImageSize {
		return errors.NewValidationError("Image", img.Filename,
			fmt.Sprintf("exceeds %d MiB", constants.MaxImageSize>>20))
	}
	if img.ContentType == "" || img.ContentType == "application/octet-stream" {
		img.ContentType = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return errors.NewValidationError("Image", img.ContentType, "must be an image")
	}
	return nil
}

// Submit validates f and img, then creates the review upstream.
func (s *Submitter) Submit(ctx context.Context, f Fields, img *Image) (*Result, error) {
	sub, err := Validate(f, img)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"Store":    map[string]any{"ID": sub.StoreID},
		"Customer": map[string]any{"first_name": sub.Customer},
		"Review":   sub.Review,
		"Rating":   sub.Rating,
	}

	var upload *creator.Upload
	if sub.Image != nil {
		upload = &creator.Upload{
			Filename:    sub.Image.Filename,
			ContentType: sub.Image.ContentType,
			Data:        sub.Image.Data,
		}
	}

	res, err := s.forms.SubmitForm(ctx, s.form, payload, upload)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("record_id", res.ID).
		Str("store_id", sub.StoreID).
		Int("rating", sub.Rating).
		Bool("image", upload != nil).
		Msg("review submitted")

	return &Result{
		ID:       res.ID,
		Message:  SuccessMessage,
		Store:    sub.StoreID,
		Customer: sub.Customer,
		Review:   sub.Review,
		Rating:   sub.Rating,
		HasImage: upload != nil,
	}, nil
}
