// Package forward relays inference requests to the single upstream backend.
//
// The forwarder does not retry and never rewrites the reply. HTTP error
// statuses come back verbatim with an error description; transport failures
// are turned into a 502 with a JSON error body so the agent always gets a
// response and the turn can still be recorded.
package forward

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one upstream round trip. Vision models are slow.
const DefaultTimeout = 5 * time.Minute

// Headers passed through from the agent's request.
var passHeaders = []string{"Authorization", "Accept"}

// Config describes the upstream.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Response is the upstream outcome as the agent will see it.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
	// Err describes an HTTP error status or transport failure. Empty on
	// success.
	Err string
}

// Forwarder posts request bodies to the upstream.
type Forwarder struct {
	url    string
	client *resty.Client
	logger *zap.Logger
}

// New creates a forwarder.
func New(cfg Config, logger *zap.Logger) *Forwarder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Pooled transport only, the proxy itself never retries.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Connection", "keep-alive")
	client.SetTransport(retryClient.HTTPClient.Transport)

	return &Forwarder{
		url:    cfg.URL,
		client: client,
		logger: logger,
	}
}

// URL returns the upstream endpoint.
func (f *Forwarder) URL() string {
	return f.url
}

// Forward posts body upstream. contentType defaults to application/json;
// header may be nil.
func (f *Forwarder) Forward(ctx context.Context, body []byte, contentType string, header http.Header) Response {
	if contentType == "" {
		contentType = "application/json"
	}

	req := f.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body)
	for _, h := range passHeaders {
		if v := header.Get(h); v != "" {
			req.SetHeader(h, v)
		}
	}

	resp, err := req.Post(f.url)
	if err != nil {
		f.logger.Warn("Upstream unreachable", zap.String("url", f.url), zap.Error(err))
		return failure(err)
	}

	out := Response{
		Status:      resp.StatusCode(),
		Body:        resp.Body(),
		ContentType: resp.Header().Get("Content-Type"),
	}
	if out.ContentType == "" {
		out.ContentType = "application/json"
	}
	if out.Status >= http.StatusBadRequest {
		out.Err = fmt.Sprintf("HTTP %d: %s", out.Status, http.StatusText(out.Status))
	}
	return out
}

func failure(err error) Response {
	msg := err.Error()
	body, mErr := sonic.Marshal(map[string]string{"error": msg})
	if mErr != nil {
		body = []byte(`{"error":"upstream unreachable"}`)
	}
	return Response{
		Status:      http.StatusBadGateway,
		Body:        body,
		ContentType: "application/json",
		Err:         msg,
	}
}
