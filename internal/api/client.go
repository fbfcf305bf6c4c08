// Package api is the HTTP client for the literature-review backend. The
// backend is treated as opaque: it searches the paper database, runs the
// extraction pipeline, generates the AI synthesis, and produces exports.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	exportTimeout  = 60 * time.Second

	// MaxSearchResults caps the per-search limit sent to the backend.
	MaxSearchResults = 8
)

// ErrUnreachable marks transport-level failures (host down, refused
// connection) so callers can report the backend as offline rather than
// surfacing a generic message.
var ErrUnreachable = errors.New("backend unreachable")

// ErrPDFUnavailable is returned when the backend cannot generate a PDF
// server-side; callers fall back to a local print-style rendering.
var ErrPDFUnavailable = errors.New("server-side PDF generation unavailable")

// Error is a structured application-level failure: the backend answered,
// but with a non-success status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// Client issues JSON requests against the backend. Every GET carries a
// monotonically increasing cache-defeating query parameter so that two
// reads issued back to back are never served the same cached response.
type Client struct {
	base    string
	httpc   *http.Client
	counter atomic.Int64
}

// New returns a Client rooted at base (e.g. http://localhost:5000/api).
func New(base string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		httpc: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	target := c.base + path
	if method == http.MethodGet {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += fmt.Sprintf("%s_=%d", sep, c.counter.Add(1))
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
	} else {
		apiErr.Message = strings.TrimSpace(resp.Status)
	}
	return apiErr
}

// Status performs the startup health probe.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	err := c.call(ctx, http.MethodGet, "/status", nil, &status)
	return status, err
}

// Search queries the paper database. Comma-separated topics are passed
// through as entered; the backend splits them. The limit is capped at
// MaxSearchResults.
func (c *Client) Search(ctx context.Context, topic string, limit int) ([]Paper, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	body := map[string]any{"topic": topic, "limit": limit}
	var result struct {
		Papers []Paper `json:"papers"`
		Count  int     `json:"count"`
	}
	if err := c.call(ctx, http.MethodPost, "/search", body, &result); err != nil {
		return nil, err
	}
	return result.Papers, nil
}

// Papers loads the saved paper list.
func (c *Client) Papers(ctx context.Context) ([]Paper, error) {
	var result struct {
		Papers []Paper `json:"papers"`
	}
	if err := c.call(ctx, http.MethodGet, "/papers", nil, &result); err != nil {
		return nil, err
	}
	return result.Papers, nil
}

// RunPipeline asks the backend to start the extraction pipeline.
func (c *Client) RunPipeline(ctx context.Context) (Ack, error) {
	var ack Ack
	err := c.call(ctx, http.MethodPost, "/pipeline/run", map[string]any{}, &ack)
	return ack, err
}

// PipelineStatus fetches the current stage statuses.
func (c *Client) PipelineStatus(ctx context.Context) (PipelineStatus, error) {
	var status PipelineStatus
	err := c.call(ctx, http.MethodGet, "/pipeline/status", nil, &status)
	return status, err
}

// RunSynthesis asks the backend to start generating the synthesis
// document. The ack carries the generation id minted for this run.
func (c *Client) RunSynthesis(ctx context.Context) (Ack, error) {
	var ack Ack
	err := c.call(ctx, http.MethodPost, "/synthesis/run", map[string]any{}, &ack)
	return ack, err
}

// Synthesis fetches the latest synthesis document and its job state.
func (c *Client) Synthesis(ctx context.Context) (SynthesisDocument, error) {
	var doc SynthesisDocument
	err := c.call(ctx, http.MethodGet, "/synthesis", nil, &doc)
	return doc, err
}

// Revise submits a revision instruction. The ack carries the fresh
// generation id; polled documents with any other id must be discarded.
func (c *Client) Revise(ctx context.Context, instruction string) (Ack, error) {
	var ack Ack
	body := map[string]string{"instruction": instruction}
	err := c.call(ctx, http.MethodPost, "/synthesis/revise", body, &ack)
	return ack, err
}

// Similarity fetches the pairwise similarity results.
func (c *Client) Similarity(ctx context.Context) (Similarity, error) {
	var sim Similarity
	err := c.call(ctx, http.MethodGet, "/similarity", nil, &sim)
	return sim, err
}

// Reports lists the archived synthesis runs, newest first.
func (c *Client) Reports(ctx context.Context) ([]Report, error) {
	var result struct {
		Reports []Report `json:"reports"`
	}
	if err := c.call(ctx, http.MethodGet, "/reports", nil, &result); err != nil {
		return nil, err
	}
	return result.Reports, nil
}

// Report fetches one archived run by id.
func (c *Client) Report(ctx context.Context, id string) (ReportDetail, error) {
	var detail ReportDetail
	err := c.call(ctx, http.MethodGet, "/reports/"+url.PathEscape(id), nil, &detail)
	return detail, err
}

// ExportAPA downloads the APA 7th edition reference list.
func (c *Client) ExportAPA(ctx context.Context) (Download, error) {
	return c.download(ctx, "/export/apa", "references_APA7.txt")
}

// ExportBib downloads the BibTeX file.
func (c *Client) ExportBib(ctx context.Context) (Download, error) {
	return c.download(ctx, "/export/bib", "references.bib")
}

// ExportMarkdown downloads the synthesis markdown.
func (c *Client) ExportMarkdown(ctx context.Context) (Download, error) {
	return c.download(ctx, "/export/markdown", "research_synthesis.md")
}

// ExportPDF downloads the server-generated PDF. A 503 answer means the
// backend cannot produce one and is reported as ErrPDFUnavailable.
func (c *Client) ExportPDF(ctx context.Context) (Download, error) {
	download, err := c.download(ctx, "/export/pdf", "research_synthesis.pdf")
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
		return Download{}, fmt.Errorf("%w: %s", ErrPDFUnavailable, apiErr.Message)
	}
	return download, err
}

func (c *Client) download(ctx context.Context, path, fallbackName string) (Download, error) {
	target := fmt.Sprintf("%s%s?_=%d", c.base, path, c.counter.Add(1))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Download{}, err
	}

	// Exports can be slow to assemble server-side; give them more room
	// than plain JSON reads.
	client := &http.Client{Timeout: exportTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Download{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Download{}, decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Download{}, fmt.Errorf("read export: %w", err)
	}
	name := fallbackName
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := params["filename"]; fn != "" {
			name = fn
		}
	}
	return Download{Name: name, Data: data}, nil
}
