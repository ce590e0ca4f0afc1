package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"sync"
	"time"
)

const (
	defaultBufferSize = 4096
	maxBufferSize     = 1024 * 1024
	defaultTimeout    = 10 * time.Second

	// maxErrorBody 错误响应体最多读取的字节数
	maxErrorBody = 4096
)

var _ Clienter = (*Client)(nil)

// StatusError 非 2xx 响应
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

// Client JSON HTTP 客户端，复用请求体缓冲区
type Client struct {
	client     *http.Client
	header     map[string]string
	bufferPool sync.Pool
}

// Option configures the HTTP client
type Option func(*Client)

// WithClient sets a custom HTTP client
func WithClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout 设置整体请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithDefaultHeader 每个请求都会带上的头
func WithDefaultHeader(header map[string]string) Option {
	return func(c *Client) {
		maps.Copy(c.header, header)
	}
}

// New creates a new HTTP client
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{Timeout: defaultTimeout},
		header: map[string]string{"Content-Type": ContentTypeJSON, "Accept": ContentTypeJSON},
		bufferPool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type requestOptions struct {
	header   map[string]string
	response any
}

// RequestOption 单次请求选项
type RequestOption func(*requestOptions)

// WithHeader sets headers for the request
func WithHeader(header map[string]string) RequestOption {
	return func(o *requestOptions) {
		maps.Copy(o.header, header)
	}
}

// WithResponse 2xx 响应体解码到 response
func WithResponse(response any) RequestOption {
	return func(o *requestOptions) {
		o.response = response
	}
}

// Request 发送请求。设置了 WithResponse 时，非 2xx 返回 *StatusError，
// 2xx 解码后关闭响应体；否则由调用方关闭
func (c *Client) Request(ctx context.Context, method, url string, body any, opts ...RequestOption) (*http.Response, error) {
	o := &requestOptions{header: maps.Clone(c.header)}
	for _, opt := range opts {
		opt(o)
	}

	req, err := c.createRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range o.header {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if o.response == nil {
		return resp, nil
	}
	return resp, decodeResponse(resp, o.response)
}

func (c *Client) createRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	switch v := body.(type) {
	case nil:
		return http.NewRequestWithContext(ctx, method, url, nil)
	case io.Reader:
		return http.NewRequestWithContext(ctx, method, url, v)
	}

	buf := c.getBuffer()
	defer c.putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, err
	}
	// 缓冲区归还前先拷贝
	return http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bytes.Clone(buf.Bytes())))
}

func decodeResponse(resp *http.Response, dest any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: data}
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *Client) getBuffer() *bytes.Buffer {
	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (c *Client) putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= maxBufferSize {
		c.bufferPool.Put(buf)
	}
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, MethodGet, url, nil, opts...)
}

// Post performs a POST request with JSON body
func (c *Client) Post(ctx context.Context, url string, body any, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, MethodPost, url, body, opts...)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, MethodDelete, url, nil, opts...)
}
