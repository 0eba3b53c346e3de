// Package gateway is the typed HTTP client for the Datascope data service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/willibrandon/datascope/internal/logger"
)

// Op names one remote capability.
type Op string

const (
	OpUpload      Op = "upload"
	OpFetchPage   Op = "fetch_page"
	OpRunQuery    Op = "run_query"
	OpExplain     Op = "explain"
	OpInsights    Op = "insights"
	OpDiagram     Op = "diagram"
	OpGenerateSQL Op = "generate_sql"
	OpDownload    Op = "download"
	OpPing        Op = "ping"
)

// fallbackMessages are shown when the service gave no detail or could not
// be reached.
var fallbackMessages = map[Op]string{
	OpUpload:      "File upload failed",
	OpFetchPage:   "Failed to fetch table data",
	OpRunQuery:    "Failed to run query",
	OpExplain:     "Failed to explain query",
	OpInsights:    "Failed to fetch insights",
	OpDiagram:     "Failed to fetch schema diagram",
	OpGenerateSQL: "AI query failed",
	OpDownload:    "Failed to download database",
	OpPing:        "Data service unreachable",
}

// FallbackMessage returns the generic failure text for op.
func FallbackMessage(op Op) string {
	if msg, ok := fallbackMessages[op]; ok {
		return msg
	}
	return "Request failed"
}

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Client calls the data service.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	latency  *LatencyTracker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		latency:  NewLatencyTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Latency returns the latency tracker fed by every completed request.
func (c *Client) Latency() *LatencyTracker {
	return c.latency
}

// check runs struct validation on an input and converts the first failure
// into a ValidationError.
func (c *Client) check(input any) error {
	err := c.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return validationError(verrs[0])
	}
	return &ValidationError{Message: err.Error()}
}

func validationError(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	var msg string
	switch {
	case field == "SessionID":
		msg = "No database loaded. Upload a .sqlite or .db file first."
	case field == "Query" && fe.Tag() == "required":
		msg = "Query cannot be empty"
	case field == "Prompt" && fe.Tag() == "required":
		msg = "Prompt cannot be empty"
	case field == "SchemaText" && fe.Tag() == "required":
		msg = "No schema loaded to generate SQL against"
	case field == "Table" && fe.Tag() == "required":
		msg = "Table name cannot be empty"
	case fe.Tag() == "gte" || fe.Tag() == "lte":
		msg = fmt.Sprintf("%s must be %s %s, got %v", strings.ToLower(field), opWord(fe.Tag()), fe.Param(), fe.Value())
	default:
		msg = fmt.Sprintf("%s is invalid", strings.ToLower(field))
	}
	return &ValidationError{Field: field, Message: msg}
}

func opWord(tag string) string {
	if tag == "gte" {
		return ">="
	}
	return "<="
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// detailText extracts a string detail. Structured details (such as lists
// of field errors) are not shown verbatim.
func detailText(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// request describes one call.
type request struct {
	op          Op
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// do sends the request and returns the response with a 2xx status. The
// caller closes the body. Every other outcome is a RemoteOperationError.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, &RemoteOperationError{Op: r.op, Message: FallbackMessage(r.op), Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	log := logger.With("op", string(r.op), "request_id", reqID)
	log.Debug("Data service request", "method", r.method, "path", r.path)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	c.latency.Observe(r.op, elapsed)

	if err != nil {
		log.Warn("Data service unreachable", "error", err, "elapsed", elapsed)
		return nil, &RemoteOperationError{Op: r.op, Message: FallbackMessage(r.op), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		msg := detailText(body)
		if msg == "" {
			msg = FallbackMessage(r.op)
		}
		rerr := &RemoteOperationError{Op: r.op, Status: resp.StatusCode, Message: msg}
		log.Warn("Data service error", "status", resp.StatusCode, "detail", msg, "elapsed", elapsed)
		return nil, rerr
	}

	log.Debug("Data service response", "status", resp.StatusCode, "elapsed", elapsed)
	return resp, nil
}

// doJSON sends the request and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &RemoteOperationError{
			Op:      r.op,
			Status:  resp.StatusCode,
			Message: FallbackMessage(r.op),
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// jsonBody marshals v for a POST body.
func jsonBody(op Op, v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &RemoteOperationError{Op: op, Message: FallbackMessage(op), Err: err}
	}
	return bytes.NewReader(data), nil
}
