// Package broker sends query documents to a Druid broker over HTTP.
//
// Execute runs the query through the caller's context stack (plus the
// client's own timeout and dataSource contexts), validates the result and
// POSTs it as JSON.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/druidq/internal/config"
	"github.com/roach88/druidq/internal/doc"
	"github.com/roach88/druidq/internal/qctx"
	"github.com/roach88/druidq/internal/query"
	"github.com/roach88/druidq/internal/schema"
)

// Client talks to one broker endpoint.
//
// Thread-safety: a Client is immutable after New and safe for concurrent use.
type Client struct {
	endpoint   string
	dataSource string
	timeoutMS  int64
	http       *http.Client
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "broker").Logger() }
}

// WithDataSource applies a dataSource context to every executed query.
func WithDataSource(name string) Option {
	return func(c *Client) { c.dataSource = name }
}

// WithTimeout applies a timeout context (milliseconds) to every executed query.
func WithTimeout(millis int64) Option {
	return func(c *Client) { c.timeoutMS = millis }
}

// WithClock sets the clock used to measure request time.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the query endpoint, e.g.
// http://localhost:8082/druid/v2.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     http.DefaultClient,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from broker configuration.
func NewFromConfig(cfg config.BrokerConfig, opts ...Option) *Client {
	base := []Option{WithDataSource(cfg.DataSource), WithTimeout(cfg.TimeoutMS)}
	return New(cfg.Endpoint(), append(base, opts...)...)
}

// Endpoint returns the query URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// MetadataEndpoint returns the broker's data source listing URL.
func (c *Client) MetadataEndpoint() string {
	return c.endpoint + "/datasources"
}

// DataSourceEndpoint returns the metadata URL of the configured data source.
func (c *Client) DataSourceEndpoint() (string, error) {
	if c.dataSource == "" {
		return "", errors.New("a data source is required to fetch the schema")
	}
	return c.MetadataEndpoint() + "/" + url.PathEscape(c.dataSource), nil
}

// Response is a successful broker answer.
type Response struct {
	Query   query.Query     // query as sent
	Body    json.RawMessage // decoded-clean JSON body
	Elapsed time.Duration
}

// Prepare applies the client's contexts and the caller's stack to q and
// checks the result is complete enough to send.
func (c *Client) Prepare(ctx context.Context, q query.Query) (query.Query, error) {
	var contexts []qctx.Context
	if c.timeoutMS > 0 {
		contexts = append(contexts, qctx.Timeout(c.timeoutMS))
	}
	if c.dataSource != "" {
		contexts = append(contexts, qctx.DataSource(c.dataSource))
	}

	var prepared query.Query
	err := qctx.WithinAll(ctx, contexts, func(ctx context.Context) error {
		processed, err := qctx.Process(ctx, q)
		if err != nil {
			return err
		}
		if err := schema.Check(query.Family, processed.Object); err != nil {
			return err
		}
		if err := query.Executable(processed); err != nil {
			return err
		}
		prepared = processed
		return nil
	})
	return prepared, err
}

// Execute prepares q and sends it. Validation failures are returned as
// *schema.SchemaError before any request is made.
func (c *Client) Execute(ctx context.Context, q query.Query) (*Response, error) {
	prepared, err := c.Prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, prepared)
}

// Send POSTs an already prepared query as is.
func (c *Client) Send(ctx context.Context, prepared query.Query) (*Response, error) {
	payload, err := prepared.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	dataSource, _ := prepared.DataSource()
	c.log.Debug().
		Str("queryType", prepared.Kind()).
		Str("dataSource", dataSource).
		Str("endpoint", c.endpoint).
		Msg("sending query")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("queryType", prepared.Kind()).Msg("request failed")
		return nil, fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := c.now().Sub(start)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if !json.Valid(body) {
		c.log.Warn().Int("status", resp.StatusCode).Msg("response is not JSON")
		return nil, &ExecutionError{
			Status:  resp.StatusCode,
			Message: "No JSON object could be decoded from the Druid response.",
			Query:   prepared,
		}
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Str("queryType", prepared.Kind()).
			Msg("query failed")
		if brokerError(body) == "Query timeout" {
			return nil, &TimeoutError{
				Elapsed:  elapsed,
				Timeout:  contextTimeout(prepared),
				Query:    prepared,
				Response: body,
			}
		}
		return nil, &ExecutionError{
			Status:   resp.StatusCode,
			Message:  "Druid responded with non-200 status code.",
			Query:    prepared,
			Response: body,
		}
	}

	c.log.Debug().Dur("elapsed", elapsed).Int("bytes", len(body)).Msg("query succeeded")
	return &Response{Query: prepared, Body: body, Elapsed: elapsed}, nil
}

func brokerError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

func contextTimeout(q query.Query) int64 {
	ctx, ok := q.Context()
	if !ok {
		return 0
	}
	switch v := ctx["timeout"].(type) {
	case doc.Int:
		return int64(v)
	case doc.Float:
		return int64(v)
	}
	return 0
}

// Schema lists a data source's columns.
type Schema struct {
	Dimensions []string `json:"dimensions"`
	Metrics    []string `json:"metrics"`
}

// FetchSchema reads the dimensions and metrics of the configured data source.
// Brokers answer 200 with an empty object for unknown data sources, which
// yields an empty Schema.
func (c *Client) FetchSchema(ctx context.Context) (Schema, error) {
	endpoint, err := c.DataSourceEndpoint()
	if err != nil {
		return Schema{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Schema{}, fmt.Errorf("build request: %w", err)
	}

	c.log.Debug().Str("endpoint", endpoint).Msg("fetching schema")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("schema request failed")
		return Schema{}, fmt.Errorf("fetch schema: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Schema{}, &ExecutionError{Status: resp.StatusCode, Message: "schema request failed"}
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Schema{}, &ExecutionError{Status: resp.StatusCode, Message: "No JSON object could be decoded from the Druid response."}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Schema{Dimensions: []string{}, Metrics: []string{}}, nil
	}
	return Schema{Dimensions: stringList(obj["dimensions"]), Metrics: stringList(obj["metrics"])}, nil
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
