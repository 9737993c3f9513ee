// Package transport performs the XML-over-HTTP exchange with a Tally
// instance.
//
// Requests are wrapped in the ENVELOPE wire format (a HEADER fragment and
// a BODY wrapping the report-specific query) and posted to the configured
// host and port. Raw responses are optionally persisted to the cache store
// so reports can fall back to them when Tally is unreachable.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	tally "github.com/amanabt/tendril-connector-tally"
	"github.com/amanabt/tendril-connector-tally/cachestore"
	"github.com/amanabt/tendril-connector-tally/xmldoc"
)

const (
	// DefaultHost is the loopback Tally instance.
	DefaultHost = "localhost"

	// DefaultPort is Tally's default XML interface port.
	DefaultPort = 9002

	// DefaultTimeout bounds one exchange. Tally can be slow on large
	// company data, so this is generous.
	DefaultTimeout = 2 * time.Minute
)

// QueryParams carries the two fragments of one request: the HEADER element
// and the report-specific body.
type QueryParams struct {
	Header *etree.Element
	Body   *etree.Element
}

// Engine executes Tally queries over HTTP. One exchange per call, blocking
// until complete or failed; there is no concurrent acquisition.
type Engine struct {
	host       string
	port       int
	httpClient *http.Client
	store      *cachestore.Store
	log        *zap.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithHost sets the Tally host.
func WithHost(host string) Option {
	return func(e *Engine) {
		if host != "" {
			e.host = host
		}
	}
}

// WithPort sets the Tally port.
func WithPort(port int) Option {
	return func(e *Engine) {
		if port > 0 {
			e.port = port
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithStore enables raw response caching through the given store.
func WithStore(store *cachestore.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an Engine with the default loopback endpoint.
func New(opts ...Option) *Engine {
	e := &Engine{
		host:       DefaultHost,
		port:       DefaultPort,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// URL returns the endpoint requests are posted to.
func (e *Engine) URL() string {
	return fmt.Sprintf("http://%s:%d", e.host, e.port)
}

// Execute serializes the query envelope, posts it, and returns the parsed
// response document. Connection failures are reported as ErrNotAvailable.
// When cacheName is non-empty and a store is configured, the raw response
// bytes are persisted under <cacheName>.xml before parsing.
func (e *Engine) Execute(ctx context.Context, q QueryParams, cacheName string) (*etree.Document, error) {
	payload, err := Serialize(q)
	if err != nil {
		return nil, err
	}

	reqID := uuid.NewString()
	e.log.Info("sending tally request",
		zap.String("url", e.URL()),
		zap.String("requestId", reqID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.log.Warn("tally request failed",
			zap.String("requestId", reqID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", tally.ErrNotAvailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tally returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", tally.ErrNotAvailable, err)
	}

	if e.store != nil && cacheName != "" {
		if err := e.store.Write(cacheName+".xml", content); err != nil {
			// Caching is best-effort; the live response is still good.
			e.log.Warn("caching response failed",
				zap.String("cacheName", cacheName),
				zap.Error(err))
		}
	}

	doc, err := xmldoc.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return doc, nil
}

// Serialize renders the query as the ENVELOPE wire format: the header
// fragment followed by a BODY wrapping the report body.
func Serialize(q QueryParams) ([]byte, error) {
	if q.Header == nil || q.Body == nil {
		return nil, fmt.Errorf("transport: query needs both header and body")
	}

	doc := etree.NewDocument()
	env := doc.CreateElement("ENVELOPE")
	env.AddChild(q.Header.Copy())
	env.CreateElement("BODY").AddChild(q.Body.Copy())

	return doc.WriteToBytes()
}

// QueryString returns the serialized envelope for debugging.
func QueryString(q QueryParams) string {
	data, err := Serialize(q)
	if err != nil {
		return ""
	}
	return string(data)
}
