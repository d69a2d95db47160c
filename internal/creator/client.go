// Package creator is the client for the data platform's report and form
// APIs. It returns raw records; shaping them is the normalize package's job.
package creator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Record is one raw upstream row.
type Record = map[string]any

// Doer is the part of transport.Client the platform client needs.
type Doer interface {
	Do(ctx context.Context, operation string, build transport.RequestFunc) (*transport.Response, error)
}

// Config locates the application on the platform.
type Config struct {
	BaseURL string
	Owner   string
	App     string
}

// DefaultConfig returns the production application location.
func DefaultConfig() Config {
	return Config{
		BaseURL: constants.DefaultCreatorURL,
		Owner:   constants.DefaultOwner,
		App:     constants.DefaultApp,
	}
}

// Client reads reports and submits forms.
type Client struct {
	doer Doer
	cfg  Config
}

// New creates a platform client.
func New(doer Doer, cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Owner == "" {
		cfg.Owner = def.Owner
	}
	if cfg.App == "" {
		cfg.App = def.App
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{doer: doer, cfg: cfg}
}

func (c *Client) resourceURL(kind, name string) string {
	return fmt.Sprintf("%s/api/%s/%s/%s/%s/%s",
		c.cfg.BaseURL, constants.CreatorAPIVersion,
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.App),
		kind, url.PathEscape(name))
}

type reportEnvelope struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    []Record `json:"data"`
}

// FetchReport returns the rows of report, filtered by criteria when it is
// not empty.
func (c *Client) FetchReport(ctx context.Context, report, criteria string) ([]Record, error) {
	ctx = logging.WithReport(ctx, report)
	endpoint := c.resourceURL("report", report)
	if criteria != "" {
		endpoint += "?" + url.Values{"criteria": {criteria}}.Encode()
	}

	resp, err := c.doer.Do(ctx, "report", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		if isNoRecords(err) {
			return []Record{}, nil
		}
		logging.Ctx(ctx).Error().Err(err).Msg("report fetch failed")
		return nil, err
	}

	var env reportEnvelope
	if err := transport.DecodeJSON(resp, report, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = []Record{}
	}
	logging.Ctx(ctx).Debug().Int("records", len(env.Data)).Msg("report fetched")
	return env.Data, nil
}

// isNoRecords recognizes the platform's "no records found" answer, which
// arrives as a non-2xx status with code 9280 in the body.
func isNoRecords(err error) bool {
	var ue *errors.UpstreamError
	if !errors.As(err, &ue) || ue.Body == "" {
		return false
	}
	var env reportEnvelope
	if json.Unmarshal([]byte(ue.Body), &env) != nil {
		return false
	}
	return env.Code == constants.NoRecordsCode
}

// FetchReports fetches several reports concurrently. The first failure
// cancels the rest and is returned; no partial result is ever returned.
func (c *Client) FetchReports(ctx context.Context, queries ...Query) ([][]Record, error) {
	results := make([][]Record, len(queries))
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, q := range queries {
		p.Go(func(ctx context.Context) error {
			rows, err := c.FetchReport(ctx, q.Report, q.Criteria)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Query names a report and an optional criteria expression.
type Query struct {
	Report   string
	Criteria string
}

// Upload is a file attached to a form submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FormResult is the platform's answer to a form submission.
type FormResult struct {
	Code    int            `json:"code"`
	ID      string         `json:"id"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Raw     map[string]any `json:"-"`
}

// SubmitForm posts payload, encoded as the bare record object, as the
// "data" part of a multipart request, with file attached as the "Image"
// part when present.
func (c *Client) SubmitForm(ctx context.Context, form string, payload any, file *Upload) (*FormResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapParse("json", "form "+form, err)
	}
	endpoint := c.resourceURL("form", form)
	ctx = logging.WithField(ctx, "form", form)

	resp, err := c.doer.Do(ctx, "form", func(ctx context.Context) (*http.Request, error) {
		body, contentType, err := encodeMultipart(data, file)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("form submission failed")
		return nil, err
	}

	var raw map[string]any
	if err := transport.DecodeJSON(resp, "form "+form, &raw); err != nil {
		return nil, err
	}
	result := parseFormResult(raw)

	// The platform reports per-record failures with a 200 and a non-3000 code.
	if result.Code != 0 && result.Code != 3000 {
		return nil, errors.NewUpstreamError(endpoint, resp.StatusCode, string(resp.Body))
	}
	return result, nil
}

func parseFormResult(raw map[string]any) *FormResult {
	res := &FormResult{Raw: raw}
	if code, ok := raw["code"].(float64); ok {
		res.Code = int(code)
	}
	if msg, ok := raw["message"].(string); ok {
		res.Message = msg
	}
	if data, ok := raw["data"].(map[string]any); ok {
		res.Data = data
		res.ID = idString(data["ID"])
		if res.ID == "" {
			res.ID = idString(data["id"])
		}
	}
	if res.ID == "" {
		res.ID = idString(raw["ID"])
	}
	return res
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

func encodeMultipart(data []byte, file *Upload) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if err := w.WriteField("data", string(data)); err != nil {
		return nil, "", err
	}

	if file != nil && len(file.Data) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="Image"; filename=%q`, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
