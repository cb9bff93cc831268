package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request is the interface for building and executing HTTP requests.
type Request interface {
	Get(ctx context.Context, url string) (*Response, error)
	Post(ctx context.Context, url string) (*Response, error)

	SetBody(body interface{}) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result interface{}) Request
}

// Response wraps http.Response with additional helpers.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body as bytes.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.body)
}

// IsError reports whether the response has an error status code.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

type requestBuilder struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	headers        map[string]string
	query          url.Values
	body           interface{}
	result         interface{}
	errorHandler   ResponseErrorHandler
	labels         []*Label
}

func (b *requestBuilder) SetBody(body interface{}) Request {
	b.body = body
	return b
}

func (b *requestBuilder) SetHeader(key, value string) Request {
	b.headers[key] = value
	return b
}

func (b *requestBuilder) SetQueryParam(key, value string) Request {
	if b.query == nil {
		b.query = url.Values{}
	}
	b.query.Set(key, value)
	return b
}

func (b *requestBuilder) SetResult(result interface{}) Request {
	b.result = result
	return b
}

func (b *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return b.execute(ctx, http.MethodGet, path)
}

func (b *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return b.execute(ctx, http.MethodPost, path)
}

func (b *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	fullURL := b.buildURL(path)

	ctx, span := b.tracer.Start(ctx, fmt.Sprintf("http.%s", strings.ToLower(method)),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", fullURL),
			attribute.String("provider", b.providerName),
		),
	)
	defer span.End()

	var bodyReader io.Reader
	if b.body != nil {
		encoded, err := json.Marshal(b.body)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if b.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	b.count(ctx, method, resp, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	raw, err := ReadBody(resp)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	wrapped := &Response{Response: resp, body: raw}

	if b.errorHandler != nil {
		if handlerErr := b.errorHandler(resp.StatusCode, raw); handlerErr != nil {
			span.RecordError(handlerErr)
			span.SetStatus(codes.Error, handlerErr.Error())
			return wrapped, handlerErr
		}
	}

	if b.result != nil && !wrapped.IsError() && len(raw) > 0 {
		if err := json.Unmarshal(raw, b.result); err != nil {
			span.RecordError(err)
			return wrapped, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return wrapped, nil
}

func (b *requestBuilder) buildURL(path string) string {
	full := path
	if b.baseURL != "" && !strings.HasPrefix(path, "http") {
		full = strings.TrimSuffix(b.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(b.query) > 0 {
		full = full + "?" + b.query.Encode()
	}
	return full
}

func (b *requestBuilder) count(ctx context.Context, method string, resp *http.Response, err error) {
	attrs := make([]attribute.KeyValue, 0, len(b.labels)+3)
	attrs = append(attrs,
		attribute.String("provider", b.providerName),
		attribute.String("method", method),
	)
	status := "error"
	if err == nil && resp != nil {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}
	attrs = append(attrs, attribute.String("status", status))
	for _, l := range b.labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	b.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
