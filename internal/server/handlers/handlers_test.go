package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/directory"
	"github.com/agentstation/storefront/internal/normalize"
	"github.com/agentstation/storefront/internal/reviews"
	"github.com/agentstation/storefront/pkg/errors"
)

type fakeService struct {
	calls int

	stores    []normalize.StoreRecord
	reviews   []normalize.ReviewRecord
	directory *directory.Directory
	result    *reviews.Result
	err       error

	storeName string
	fields    reviews.Fields
	image     *reviews.Image
}

func (f *fakeService) Stores(context.Context) ([]normalize.StoreRecord, error) {
	f.calls++
	return f.stores, f.err
}

func (f *fakeService) Reviews(_ context.Context, storeName string) ([]normalize.ReviewRecord, error) {
	f.calls++
	f.storeName = storeName
	return f.reviews, f.err
}

func (f *fakeService) Directory(context.Context) (*directory.Directory, error) {
	f.calls++
	return f.directory, f.err
}

func (f *fakeService) SubmitReview(_ context.Context, fields reviews.Fields, img *reviews.Image) (*reviews.Result, error) {
	f.calls++
	f.fields = fields
	f.image = img
	return f.result, f.err
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHandleHealth(t *testing.T) {
	svc := &fakeService{}
	w := httptest.NewRecorder()
	New(svc).HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.Zero(t, svc.calls)
}

func TestHandleListStores(t *testing.T) {
	svc := &fakeService{stores: []normalize.StoreRecord{{ID: "1", Name: "Acme", FirstName: "Acme"}}}
	w := httptest.NewRecorder()
	New(svc).HandleListStores(w, httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0]["name"])
	assert.Contains(t, got[0], "coordinates")
}

func TestHandleListStores_UpstreamError(t *testing.T) {
	svc := &fakeService{err: errors.NewUpstreamError("/report/Store_Report", 502, `{"code":1030}`)}
	w := httptest.NewRecorder()
	New(svc).HandleListStores(w, httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Failed to fetch store data", body["error"])
	assert.Equal(t, map[string]any{"status": float64(502), "body": map[string]any{"code": float64(1030)}}, body["details"])
}

func TestHandleListReviews(t *testing.T) {
	t.Run("missing store_name", func(t *testing.T) {
		svc := &fakeService{}
		w := httptest.NewRecorder()
		New(svc).HandleListReviews(w, httptest.NewRequest(http.MethodGet, "/api/reviews", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing store_name query parameter", decodeBody(t, w)["error"])
		assert.Zero(t, svc.calls, "no service call without store_name")
	})

	t.Run("no matches is an empty array", func(t *testing.T) {
		svc := &fakeService{reviews: []normalize.ReviewRecord{}}
		w := httptest.NewRecorder()
		New(svc).HandleListReviews(w, httptest.NewRequest(http.MethodGet, "/api/reviews?store_name=Acme%20Solar", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		assert.Equal(t, "Acme Solar", svc.storeName)
	})

	t.Run("timeout", func(t *testing.T) {
		svc := &fakeService{err: errors.NewTimeoutError("report", "10s", "deadline exceeded")}
		w := httptest.NewRecorder()
		New(svc).HandleListReviews(w, httptest.NewRequest(http.MethodGet, "/api/reviews?store_name=Acme", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to fetch review data", decodeBody(t, w)["error"])
	})
}

func TestHandleDirectory(t *testing.T) {
	svc := &fakeService{directory: &directory.Directory{
		Stores:  []normalize.StoreWithReviews{},
		Reviews: []normalize.ReviewRecord{},
	}}
	w := httptest.NewRecorder()
	New(svc).HandleDirectory(w, httptest.NewRequest(http.MethodGet, "/api/directory", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"stores":[],"reviews":[]}`, w.Body.String())
}

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("Image", "panel.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleSubmitReview(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	svc := &fakeService{result: &reviews.Result{ID: "77", Message: reviews.SuccessMessage, HasImage: true}}

	req := multipartRequest(t, map[string]string{
		"Store": "4102", "Customer": "Dana", "Review": "Great", "Rating": "5",
	}, png)
	w := httptest.NewRecorder()
	New(svc).HandleSubmitReview(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "77", body["id"])
	assert.Equal(t, reviews.SuccessMessage, body["message"])

	assert.Equal(t, reviews.Fields{Store: "4102", Customer: "Dana", Review: "Great", Rating: "5"}, svc.fields)
	require.NotNil(t, svc.image)
	assert.Equal(t, "panel.png", svc.image.Filename)
	assert.Equal(t, png, svc.image.Data)
}

func TestHandleSubmitReview_CustomerNameAlias(t *testing.T) {
	svc := &fakeService{result: &reviews.Result{ID: "1"}}
	req := multipartRequest(t, map[string]string{
		"Store": "4102", "Customer_name": "Sam", "Review": "ok", "Rating": "4",
	}, nil)
	w := httptest.NewRecorder()
	New(svc).HandleSubmitReview(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Sam", svc.fields.Customer)
	assert.Nil(t, svc.image)
}

func TestHandleSubmitReview_URLEncoded(t *testing.T) {
	svc := &fakeService{result: &reviews.Result{ID: "1"}}
	form := url.Values{"Store": {"4102"}, "Customer": {"Sam"}, "Review": {"ok"}, "Rating": {"4"}}
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	New(svc).HandleSubmitReview(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "4102", svc.fields.Store)
	assert.Nil(t, svc.image)
}

func TestHandleSubmitReview_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "missing fields",
			err:     errors.NewValidationError("", []string{"Store", "Review"}, "missing required fields: Store, Review"),
			status:  http.StatusBadRequest,
			message: "validation failed: missing required fields: Store, Review",
		},
		{
			name:    "upstream rejection",
			err:     errors.NewUpstreamError("/form/Review", 400, `{"code":3001}`),
			status:  http.StatusInternalServerError,
			message: "Upload failed",
		},
		{
			name:    "auth failure",
			err:     errors.NewAuthError("token endpoint", 400, "invalid_code", nil),
			status:  http.StatusInternalServerError,
			message: "Upload failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			w := httptest.NewRecorder()
			New(svc).HandleSubmitReview(w, multipartRequest(t, map[string]string{"Rating": "5"}, nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeBody(t, w)["error"])
		})
	}
}
