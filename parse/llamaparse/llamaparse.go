// Package llamaparse parses documents through the LlamaCloud parsing API.
//
// The managed service handles layout-aware extraction (tables,
// multi-column text, scanned pages) that native extraction cannot, and
// returns markdown or plain text. This is a separate subpackage so
// callers who only need native parsing never touch the network.
package llamaparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	quire "github.com/nevindra/quire"
	"github.com/nevindra/quire/parse"
)

const (
	defaultBaseURL      = "https://api.cloud.llamaindex.ai/api/v1"
	defaultPollInterval = 2 * time.Second
	defaultWaitTimeout  = 5 * time.Minute
)

// Result types the parsing API can return.
const (
	ResultMarkdown = "markdown"
	ResultText     = "text"
)

// Job states reported by the parsing API.
const (
	statusPending  = "PENDING"
	statusSuccess  = "SUCCESS"
	statusError    = "ERROR"
	statusCanceled = "CANCELED"
)

// Client implements quire.Parser against the LlamaCloud parsing API:
// upload the file, poll the job until it settles, fetch the result.
type Client struct {
	apiKey       string
	baseURL      string
	resultType   string
	pollInterval time.Duration
	waitTimeout  time.Duration
	httpc        *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (regional endpoints, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithResultType selects ResultMarkdown (default) or ResultText.
func WithResultType(rt string) Option {
	return func(c *Client) { c.resultType = rt }
}

// WithPollInterval sets how often the job status is polled (default 2s).
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithWaitTimeout caps the total wait for one parse job (default 5m).
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.waitTimeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client (e.g. for timeouts or proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithLogger sets a logger for job progress events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a LlamaCloud parsing client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		resultType:   ResultMarkdown,
		pollInterval: defaultPollInterval,
		waitTimeout:  defaultWaitTimeout,
		httpc:        &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse uploads the document, waits for the parse job to finish, and
// fetches the extracted text.
func (c *Client) Parse(ctx context.Context, req quire.ParseRequest) (*quire.ParseResult, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty document content")
	}

	jobID, err := c.upload(ctx, req.Name, req.Data)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if err := c.wait(ctx, jobID); err != nil {
		return nil, err
	}
	text, pages, err := c.result(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch result: %w", err)
	}

	mt := req.MediaType
	if mt == "" {
		mt = parse.DetectMediaType(req.Name, req.Data)
	}
	return &quire.ParseResult{
		Text:      strings.TrimSpace(parse.Sanitize(text)),
		MediaType: mt,
		PageCount: pages,
	}, nil
}

// job is the parsing API's job detail payload.
type job struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// upload sends the file as multipart form data and returns the job ID.
func (c *Client) upload(ctx context.Context, name string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parsing/upload", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", httpErr(resp)
	}

	var j job
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if j.ID == "" {
		return "", fmt.Errorf("upload response missing job id")
	}
	return j.ID, nil
}

// wait polls the job until it reaches a terminal state.
func (c *Client) wait(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var j job
		if err := c.get(ctx, "/parsing/job/"+jobID, &j); err != nil {
			return fmt.Errorf("poll job %s: %w", jobID, err)
		}
		switch j.Status {
		case statusSuccess:
			return nil
		case statusError, statusCanceled:
			msg := j.ErrorMessage
			if msg == "" {
				msg = strings.ToLower(j.Status)
			}
			return fmt.Errorf("parse job %s failed: %s", jobID, msg)
		}
		if c.logger != nil {
			c.logger.Debug("parse job pending", "job", jobID, "status", j.Status)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for parse job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// result fetches the finished job's text and page count.
func (c *Client) result(ctx context.Context, jobID string) (string, int, error) {
	var out struct {
		Markdown string `json:"markdown"`
		Text     string `json:"text"`
		Meta     struct {
			Pages int `json:"job_pages"`
		} `json:"job_metadata"`
	}
	path := fmt.Sprintf("/parsing/job/%s/result/%s", jobID, c.resultType)
	if err := c.get(ctx, path, &out); err != nil {
		return "", 0, err
	}
	text := out.Markdown
	if c.resultType == ResultText {
		text = out.Text
	}
	return text, out.Meta.Pages, nil
}

// get performs an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpErr(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// httpErr reads the response body and returns an ErrHTTP for retry middleware.
// Parses the Retry-After header when present (429/503 responses).
func httpErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &quire.ErrHTTP{
		Status:     resp.StatusCode,
		Body:       string(body),
		RetryAfter: quire.ParseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// Compile-time interface check.
var _ quire.Parser = (*Client)(nil)
