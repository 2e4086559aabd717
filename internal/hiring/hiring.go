// Package hiring is the client for the hiring platform REST API.
// Every call goes through Client.do, which attaches the bearer token.
package hiring

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultAPIURL  = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second
	userAgent      = "spigell/hirectl"
)

// TokenSource yields the current bearer token. An empty string means anonymous.
type TokenSource interface {
	Token() string
}

// Recorder receives one observation per backend call.
type Recorder interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

type Client struct {
	tokens     TokenSource
	logger     *zap.Logger
	Recorder   Recorder
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client for DefaultAPIURL. tokens may be nil for anonymous use.
func New(tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		tokens:    tokens,
		logger:    logger,
		APIURL:    DefaultAPIURL,
		UserAgent: userAgent,
	}

	c.HTTPClient = &http.Client{
		Timeout:   DefaultTimeout,
		Transport: &transport{client: c, base: otelhttp.NewTransport(http.DefaultTransport)},
	}

	return c
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}
