package gateway

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/willibrandon/datascope/internal/session"
)

// allowedExtensions lists the file types the service can ingest.
var allowedExtensions = []string{".sqlite", ".db"}

// ValidateUploadName rejects file names the service cannot ingest.
func ValidateUploadName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return &ValidationError{Field: "File", Message: ErrInvalidFileType}
}

// UploadResult is the session created by an upload.
type UploadResult struct {
	SessionID string          `json:"session_id"`
	Schema    *session.Schema `json:"schema"`
}

type sessionInput struct {
	SessionID string `validate:"required"`
}

type pageInput struct {
	SessionID string `validate:"required"`
	Table     string `validate:"required"`
	Page      int    `validate:"gte=1"`
	PageSize  int    `validate:"gte=1,lte=10000"`
}

type tableInput struct {
	SessionID string `validate:"required"`
	Table     string `validate:"required"`
}

type queryInput struct {
	SessionID string `validate:"required"`
	Query     string `validate:"required"`
}

type generateInput struct {
	Prompt     string `validate:"required"`
	SchemaText string `validate:"required"`
}

// Upload sends a database file and returns the new session.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	if err := ValidateUploadName(filename); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	var out UploadResult
	err := c.doJSON(ctx, request{
		op:          OpUpload,
		method:      http.MethodPost,
		path:        "/api/upload-db",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &out)
	// Unblock the writer goroutine if the request ended early.
	pr.Close()
	if err != nil {
		return nil, err
	}
	if out.SessionID == "" {
		return nil, &RemoteOperationError{Op: OpUpload, Message: FallbackMessage(OpUpload),
			Err: fmt.Errorf("response carried no session_id")}
	}
	if out.Schema == nil {
		out.Schema = &session.Schema{}
	}
	return &out, nil
}

// FetchPage returns one page of a table.
func (c *Client) FetchPage(ctx context.Context, sessionID, table string, page, pageSize int) (*session.ViewResult, error) {
	if err := c.check(pageInput{SessionID: sessionID, Table: table, Page: page, PageSize: pageSize}); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("session_id", sessionID)
	q.Set("table_name", table)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out session.ViewResult
	if err := c.doJSON(ctx, request{
		op:     OpFetchPage,
		method: http.MethodGet,
		path:   "/api/table-data",
		query:  q,
	}, &out); err != nil {
		return nil, err
	}
	if out.TableName == "" {
		out.TableName = table
	}
	if out.Pagination.PageSize == 0 {
		out.Pagination.PageSize = pageSize
	}
	if out.Pagination.Page == 0 {
		out.Pagination.Page = page
	}
	out.Pagination = out.Pagination.Normalize(len(out.Rows))
	return &out, nil
}

// RunQuery executes free-form SQL. The result is never table-backed.
func (c *Client) RunQuery(ctx context.Context, sessionID, query string) (*session.ViewResult, error) {
	query = strings.TrimSpace(query)
	if err := c.check(queryInput{SessionID: sessionID, Query: query}); err != nil {
		return nil, err
	}

	body, err := jsonBody(OpRunQuery, map[string]string{"session_id": sessionID, "query": query})
	if err != nil {
		return nil, err
	}

	var out session.ViewResult
	if err := c.doJSON(ctx, request{
		op:          OpRunQuery,
		method:      http.MethodPost,
		path:        "/api/run-query",
		body:        body,
		contentType: "application/json",
	}, &out); err != nil {
		return nil, err
	}
	out.TableName = ""
	out.Pagination = out.Pagination.Normalize(len(out.Rows))
	return &out, nil
}

// Explain returns the query plan for SQL without running it.
func (c *Client) Explain(ctx context.Context, sessionID, query string) (session.QueryPlan, error) {
	query = strings.TrimSpace(query)
	if err := c.check(queryInput{SessionID: sessionID, Query: query}); err != nil {
		return nil, err
	}

	body, err := jsonBody(OpExplain, map[string]string{"session_id": sessionID, "query": query})
	if err != nil {
		return nil, err
	}

	var out struct {
		Plan session.QueryPlan `json:"plan"`
	}
	if err := c.doJSON(ctx, request{
		op:          OpExplain,
		method:      http.MethodPost,
		path:        "/api/explain-query",
		body:        body,
		contentType: "application/json",
	}, &out); err != nil {
		return nil, err
	}
	if out.Plan == nil {
		out.Plan = session.QueryPlan{}
	}
	return out.Plan, nil
}

// FetchInsights returns per-column statistics for a table.
func (c *Client) FetchInsights(ctx context.Context, sessionID, table string) (*session.InsightsReport, error) {
	if err := c.check(tableInput{SessionID: sessionID, Table: table}); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("session_id", sessionID)
	q.Set("table_name", table)

	var out session.InsightsReport
	if err := c.doJSON(ctx, request{
		op:     OpInsights,
		method: http.MethodGet,
		path:   "/api/table-insights",
		query:  q,
	}, &out); err != nil {
		return nil, err
	}
	if out.TableName == "" {
		out.TableName = table
	}
	return &out, nil
}

// FetchDiagramSource returns the Mermaid source of the schema diagram.
func (c *Client) FetchDiagramSource(ctx context.Context, sessionID string) (string, error) {
	if err := c.check(sessionInput{SessionID: sessionID}); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("session_id", sessionID)

	var out struct {
		Diagram string `json:"diagram_string"`
	}
	if err := c.doJSON(ctx, request{
		op:     OpDiagram,
		method: http.MethodGet,
		path:   "/api/schema-diagram",
		query:  q,
	}, &out); err != nil {
		return "", err
	}
	return out.Diagram, nil
}

// GenerateSQL turns a natural-language prompt into SQL for the given schema.
func (c *Client) GenerateSQL(ctx context.Context, prompt, schemaText string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if err := c.check(generateInput{Prompt: prompt, SchemaText: strings.TrimSpace(schemaText)}); err != nil {
		return "", err
	}

	body, err := jsonBody(OpGenerateSQL, map[string]string{"prompt": prompt, "schema_str": schemaText})
	if err != nil {
		return "", err
	}

	var out struct {
		SQL string `json:"sql_query"`
	}
	if err := c.doJSON(ctx, request{
		op:          OpGenerateSQL,
		method:      http.MethodPost,
		path:        "/api/generate-sql",
		body:        body,
		contentType: "application/json",
	}, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.SQL), nil
}

// Download streams the session's current database file into w.
func (c *Client) Download(ctx context.Context, sessionID string, w io.Writer) (int64, error) {
	if err := c.check(sessionInput{SessionID: sessionID}); err != nil {
		return 0, err
	}

	q := url.Values{}
	q.Set("session_id", sessionID)

	resp, err := c.do(ctx, request{
		op:     OpDownload,
		method: http.MethodGet,
		path:   "/api/download-db",
		query:  q,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &RemoteOperationError{Op: OpDownload, Status: resp.StatusCode,
			Message: FallbackMessage(OpDownload), Err: err}
	}
	return n, nil
}

// Ping checks that the service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]any
	return c.doJSON(ctx, request{
		op:     OpPing,
		method: http.MethodGet,
		path:   "/api/ping",
	}, &out)
}
