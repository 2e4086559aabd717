package hiring

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/logger"
)

const (
	contentTypeJSON = "application/json"
	requestIDHeader = "X-Request-ID"
	maxLoggedDetail = 200
)

// transport decorates every outgoing request, including the ones issued by the
// oauth2 login flow, so the bearer header cannot be forgotten.
type transport struct {
	client *Client
	base   http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if token := t.client.token(); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("User-Agent", t.client.UserAgent)
	if req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, uuid.NewString())
	}

	return t.base.RoundTrip(req)
}

// endpoint is a logical call: route is the path template used for metrics and logs.
type endpoint struct {
	method string
	route  string
	path   string
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.APIURL, "/") + path
}

// do sends the request and returns the decoded body of a 2xx response.
func (c *Client) do(ctx context.Context, ep endpoint, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, ep.method, c.url(ep.path), body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)

	c.logger.Debug("make request", zap.String("method", ep.method), zap.String("url", req.URL.String()))

	started := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.observe(ep, 0, started)
		return nil, &TransportError{Method: ep.method, Path: ep.path, Err: err}
	}
	defer resp.Body.Close()

	c.observe(ep, resp.StatusCode, started)

	data, err := readBody(resp)
	if err != nil {
		return nil, &TransportError{Method: ep.method, Path: ep.path, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.rejected(ep, newAPIError(resp.StatusCode, data))
	}

	return data, nil
}

func (c *Client) rejected(ep endpoint, apiErr *APIError) *APIError {
	c.logger.Debug("backend rejected request",
		zap.String("route", ep.route),
		zap.Int("status", apiErr.StatusCode),
		zap.String("detail", logger.TruncateForLog(apiErr.Detail, maxLoggedDetail)),
	)
	return apiErr
}

func (c *Client) observe(ep endpoint, status int, started time.Time) {
	if c.Recorder == nil {
		return
	}
	c.Recorder.ObserveRequest(ep.method, ep.route, status, time.Since(started))
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	// The default transport only decompresses when it negotiated gzip itself.
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	return io.ReadAll(reader)
}

func (c *Client) getJSON(ctx context.Context, ep endpoint, target any) error {
	data, err := c.do(ctx, ep, nil, "")
	if err != nil {
		return err
	}

	return decodeJSON(ep, data, target)
}

func (c *Client) postJSON(ctx context.Context, ep endpoint, payload any, target any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", ep.route, err)
		}
		body = bytes.NewReader(buf)
		contentType = contentTypeJSON
	}

	data, err := c.do(ctx, ep, body, contentType)
	if err != nil {
		return err
	}

	return decodeJSON(ep, data, target)
}

// postFile uploads content as a single multipart file field.
func (c *Client) postFile(ctx context.Context, ep endpoint, field, filename string, content io.Reader, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	if err := w.Close(); err != nil {
		return err
	}

	data, err := c.do(ctx, ep, &b, w.FormDataContentType())
	if err != nil {
		return err
	}

	return decodeJSON(ep, data, target)
}

func decodeJSON(ep endpoint, data []byte, target any) error {
	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding %s response: %w", ep.route, err)
	}

	return nil
}
