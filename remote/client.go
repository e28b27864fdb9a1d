// Package remote talks to the storage and compute services of the
// annotation platform.
//
// The storage service holds the directories and their page annotations.
// The compute service serves deskewed page images, computes annotations for
// pages that have none stored yet, and runs handwriting recognition and
// named-entity tagging.
//
//	c := remote.New(
//	    []remote.RequestOption{remote.WithURL(cfg.Storage.URL), remote.WithToken(cfg.Storage.Token)},
//	    []remote.RequestOption{remote.WithURL(cfg.Compute.URL), remote.WithToken(cfg.Compute.Token)},
//	)
//	dirs, err := c.Directories(ctx)
//
// A Client satisfies the repository, recognizer and tagger interfaces of
// the session package.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/tsawler/annotator/annotation"
)

// StatusError is returned when a service answers with a status other
// than 200 OK
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

type RequestConfig struct {
	URL   string
	Token string

	Client  *http.Client
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

type RequestOption func(*RequestConfig)

func WithURL(url string) RequestOption {
	return func(c *RequestConfig) {
		c.URL = url
	}
}

// WithToken sets the Authorization header value sent with every request.
// The services expect the token verbatim.
func WithToken(token string) RequestOption {
	return func(c *RequestConfig) {
		c.Token = token
	}
}

func WithClient(client *http.Client) RequestOption {
	return func(c *RequestConfig) {
		c.Client = client
	}
}

// WithLimiter makes requests wait for l before they are sent
func WithLimiter(l *rate.Limiter) RequestOption {
	return func(c *RequestConfig) {
		c.Limiter = l
	}
}

func WithLogger(logger *slog.Logger) RequestOption {
	return func(c *RequestConfig) {
		c.Logger = logger
	}
}

func newRequestConfig(opts ...RequestOption) *RequestConfig {
	c := &RequestConfig{
		Client: http.DefaultClient,
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Client combines the storage and compute services
type Client struct {
	Storage StorageService
	Compute ComputeService

	logger *slog.Logger
}

// New creates a client. Each option list configures one service.
func New(storage []RequestOption, compute []RequestOption) *Client {
	return &Client{
		Storage: NewStorageService(storage...),
		Compute: NewComputeService(compute...),
		logger:  newRequestConfig(storage...).Logger,
	}
}

// Directories lists the documents held by the storage service
func (c *Client) Directories(ctx context.Context) ([]string, error) {
	return c.Storage.Directories(ctx)
}

// PageCount returns the number of pages of a document
func (c *Client) PageCount(ctx context.Context, document string) (int, error) {
	return c.Storage.PageCount(ctx, document)
}

// Annotations returns the annotations of a page. Pages without stored
// annotations are computed by the compute service.
func (c *Client) Annotations(ctx context.Context, document string, view int) ([]annotation.Record, error) {
	records, err := c.Storage.Annotations(ctx, document, view)

	if err == nil {
		return records, nil
	}

	if ctx.Err() != nil {
		return nil, err
	}

	c.logger.Info("annotations are missing, asking for computation", "document", document, "view", view, "error", err)

	return c.Compute.Annotations(ctx, document, view)
}

// SaveAnnotations stores the annotations of a page
func (c *Client) SaveAnnotations(ctx context.Context, document string, view int, records []annotation.Record) error {
	return c.Storage.SaveAnnotations(ctx, document, view, records)
}

// Image returns the deskewed image of a page
func (c *Client) Image(ctx context.Context, document string, view int) ([]byte, error) {
	return c.Compute.Image(ctx, document, view)
}

// NER returns the entity markup of text
func (c *Client) NER(ctx context.Context, text string) (string, error) {
	return c.Compute.NER(ctx, text)
}

// RecognizeRegions transcribes regions of a page. The compute service
// reads the page image itself, so image is not sent.
func (c *Client) RecognizeRegions(ctx context.Context, document string, view int, image []byte, boxes []annotation.Box) ([]string, error) {
	return c.Compute.OCR(ctx, document, view, boxes)
}

func pagePath(document string, view int) string {
	return fmt.Sprintf("%s/%d", documentPath(document), view)
}

// documentPath escapes the document name as one path segment
func documentPath(document string) string {
	return "/directories/" + url.PathEscape(document)
}

// do sends a request with an optional JSON body and returns the response
// body of a 200 OK answer
func do(ctx context.Context, c *RequestConfig, method, path string, body any) ([]byte, error) {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)

		if err != nil {
			return nil, err
		}

		reader = bytes.NewReader(data)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reader)

	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.Token != "" {
		req.Header.Set("Authorization", c.Token)
	}

	c.Logger.Debug("sending request", "method", method, "url", req.URL.String())

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Method:     method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return io.ReadAll(resp.Body)
}

func doJSON(ctx context.Context, c *RequestConfig, method, path string, body, result any) error {
	data, err := do(ctx, c, method, path, body)

	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
