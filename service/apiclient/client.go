// Package apiclient is the single gateway to the backend. Requests pass
// through an ordered list of decorators before they are sent; responses and
// transport failures pass through an ordered list of normalizers before they
// reach the caller. Every failure that leaves Do is a *model.NormalizedError.
package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/logger"
	"github.com/shelfhq/shelf/pkg/tokenstore"
)

const APIPrefix = "/api/v2"

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

type Client struct {
	baseURL     string
	http        *http.Client
	store       tokenstore.Store
	log         *zap.Logger
	decorators  []RequestDecorator
	normalizers []ResponseNormalizer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDecorator appends d after the default decorators.
func WithDecorator(d RequestDecorator) Option {
	return func(c *Client) { c.decorators = append(c.decorators, d) }
}

// WithNormalizer appends n after the default normalizers.
func WithNormalizer(n ResponseNormalizer) Option {
	return func(c *Client) { c.normalizers = append(c.normalizers, n) }
}

func New(baseURL string, store tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		store:   store,
		log:     zap.NewNop(),
	}
	c.decorators = []RequestDecorator{JSONContentType, BearerFrom(store)}
	c.normalizers = []ResponseNormalizer{RejectNonSuccess, c.evictOnUnauthorized}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client for the configured base URL and timeout.
func NewFromConfig(conf *model.Config, store tokenstore.Store, opts ...Option) *Client {
	opts = append([]Option{WithTimeout(conf.Timeout)}, opts...)
	return New(conf.APIBaseURL, store, opts...)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Store() tokenstore.Store {
	return c.store
}

// Do sends r and decodes a successful response into out. out may be nil to
// discard the body, or a *[]byte to receive it undecoded.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return model.NewMalformedError(err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", logger.Method(r.Method), logger.Path(r.Path),
			logger.Duration(time.Since(start)), zap.Error(err))
		return c.normalize(nil, nil, model.NewUnreachableError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.log.Debug("request", logger.Method(r.Method), logger.Path(r.Path),
		logger.Status(resp.StatusCode), logger.Duration(time.Since(start)))
	if err != nil {
		return c.normalize(resp, nil, model.NewUnreachableError(err))
	}

	if err := c.normalize(resp, body, nil); err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + r.Path)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, d := range c.decorators {
		if err := d(req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (c *Client) normalize(resp *http.Response, body []byte, err error) error {
	for _, n := range c.normalizers {
		err = n(resp, body, err)
	}
	if err == nil {
		return nil
	}
	if _, ok := model.AsNormalized(err); !ok {
		return model.NewMalformedError(err)
	}
	return err
}

func decode(body []byte, out any) error {
	switch v := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*v = body
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return model.NewMalformedError(err)
	}
	return nil
}
