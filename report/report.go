// Package report models one Tally request/response cycle.
//
// A Report builds a protocol-specific request body, acquires the response
// document lazily through the transport (falling back to the raw response
// cache when Tally is unreachable), and exposes memoized named collections
// of typed elements keyed by their natural name.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	tally "github.com/amanabt/tendril-connector-tally"
	"github.com/amanabt/tendril-connector-tally/cachestore"
	"github.com/amanabt/tendril-connector-tally/transport"
	"github.com/amanabt/tendril-connector-tally/xmldoc"
)

// DefaultHeader is the plain request header used by export reports.
const DefaultHeader = "Export Data"

// Transport performs one request/response exchange. Implemented by
// *transport.Engine; reports only need this one method.
type Transport interface {
	Execute(ctx context.Context, q transport.QueryParams, cacheName string) (*etree.Document, error)
}

// Named is a typed element with a natural identifier, used to key
// collection mappings.
type Named interface {
	ElementName() string
}

// ContentRule declares one named collection: which elements to gather and
// how to build each typed element.
type ContentRule struct {
	// Source is the element name matched (case-insensitively) within the
	// report's container.
	Source string

	// Build constructs the typed element for one matching node. The
	// report itself is the extraction context.
	Build func(el *etree.Element, r *Report) (Named, error)
}

// BodyBuilder assembles the protocol-specific request body for a concrete
// report type.
type BodyBuilder func(r *Report) (*etree.Element, error)

// Report is one request/response cycle against a single company. Concrete
// report types embed it and configure header, body, container and content
// through options.
//
// A Report memoizes its document on first acquisition and each named
// collection on first access; it is not safe for concurrent use.
type Report struct {
	company    string
	headerText string
	header     *RequestHeader
	container  string
	cacheNS    string
	content    map[string]ContentRule
	buildBody  BodyBuilder

	transport Transport
	store     *cachestore.Store
	log       *zap.Logger

	doc         *etree.Document
	collections map[string]*Mapping
}

// Option configures a Report.
type Option func(*Report)

// WithHeaderText sets a plain single-element request header.
func WithHeaderText(text string) Option {
	return func(r *Report) {
		r.headerText = text
		r.header = nil
	}
}

// WithHeader sets a structured request header.
func WithHeader(h RequestHeader) Option {
	return func(r *Report) {
		r.header = &h
	}
}

// WithContainer scopes collection discovery to the named element of the
// response document.
func WithContainer(name string) Option {
	return func(r *Report) {
		r.container = name
	}
}

// WithCacheNamespace enables raw response caching for this report type.
// Without a namespace no cache key can be derived and no caching happens.
func WithCacheNamespace(ns string) Option {
	return func(r *Report) {
		r.cacheNS = ns
	}
}

// WithStore sets the raw response store used for offline fallback.
func WithStore(s *cachestore.Store) Option {
	return func(r *Report) {
		r.store = s
	}
}

// WithLogger sets the report logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Report) {
		r.log = log
	}
}

// WithBody sets the request body builder.
func WithBody(fn BodyBuilder) Option {
	return func(r *Report) {
		r.buildBody = fn
	}
}

// WithContent declares a named collection.
func WithContent(name string, rule ContentRule) Option {
	return func(r *Report) {
		r.content[name] = rule
	}
}

// New creates a report for the given company using the given transport.
func New(company string, t Transport, opts ...Option) *Report {
	r := &Report{
		company:     company,
		headerText:  DefaultHeader,
		content:     make(map[string]ContentRule),
		collections: make(map[string]*Mapping),
		transport:   t,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CompanyName returns the company this report is scoped to. It satisfies
// schema.Context so that nested elements can resolve company-wide lookups.
func (r *Report) CompanyName() string {
	return r.company
}

// CacheKey derives the raw response cache key from the report's namespace
// and a normalized company name. An empty namespace means this report type
// cannot be cached.
func (r *Report) CacheKey() string {
	if r.cacheNS == "" {
		return ""
	}
	company := strings.ReplaceAll(r.company, " ", "_")
	company = strings.ReplaceAll(company, ".", "")
	company = strings.ReplaceAll(company, "-", "")
	return fmt.Sprintf("%s.%s", r.cacheNS, company)
}

// BuildRequestBody assembles the request body. Calling it on a report with
// no body builder configured is a programming error.
func (r *Report) BuildRequestBody() (*etree.Element, error) {
	if r.buildBody == nil {
		return nil, &tally.Fault{Kind: tally.FaultUnsupported,
			Err: errors.New("report has no request body builder")}
	}
	return r.buildBody(r)
}

// Document returns the parsed response document, acquiring it on first
// access. When the transport reports that Tally is unreachable and a cache
// key and store are configured, a previously cached raw response for the
// same key is returned instead; with no cache key the unreachability error
// surfaces immediately.
func (r *Report) Document(ctx context.Context) (*etree.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}

	doc, err := r.acquire(ctx)
	if err != nil {
		if !errors.Is(err, tally.ErrNotAvailable) || r.store == nil || r.CacheKey() == "" {
			return nil, err
		}
		r.log.Info("tally unreachable, trying cached response",
			zap.String("cacheKey", r.CacheKey()))
		doc, err = r.readCached()
		if err != nil {
			return nil, err
		}
	}

	r.doc = doc
	return r.doc, nil
}

// acquire performs one live exchange through the transport.
func (r *Report) acquire(ctx context.Context) (*etree.Document, error) {
	body, err := r.BuildRequestBody()
	if err != nil {
		return nil, err
	}
	q := transport.QueryParams{
		Header: r.BuildRequestHeader(),
		Body:   body,
	}
	return r.transport.Execute(ctx, q, r.CacheKey())
}

// readCached loads the raw response cached under this report's key. Any
// failure is mapped to ErrNotAvailable: the live exchange already failed
// and the cache could not stand in.
func (r *Report) readCached() (*etree.Document, error) {
	data, err := r.store.Read(r.CacheKey() + ".xml")
	if err != nil {
		return nil, fmt.Errorf("%w: no cached response for %s", tally.ErrNotAvailable, r.CacheKey())
	}
	doc, err := xmldoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: cached response unreadable: %v", tally.ErrNotAvailable, err)
	}
	return doc, nil
}

// Collection returns the named collection, building it on first access.
// The mapping is ordered by document order and keyed case-insensitively by
// each element's natural name; later accesses return the identical mapping.
// Requesting an undeclared collection name fails.
func (r *Report) Collection(ctx context.Context, name string) (*Mapping, error) {
	if m, ok := r.collections[name]; ok {
		return m, nil
	}

	rule, ok := r.content[name]
	if !ok {
		return nil, &tally.Fault{Kind: tally.FaultUnsupported, Field: name,
			Err: fmt.Errorf("collection %q is not declared", name)}
	}

	doc, err := r.Document(ctx)
	if err != nil {
		return nil, err
	}

	scope := doc.Root()
	if r.container != "" {
		scope = xmldoc.FindNamed(doc, r.container)
		if scope == nil {
			return nil, &tally.Fault{Kind: tally.FaultMissing, Field: name, Source: r.container,
				Err: fmt.Errorf("container element not found in response")}
		}
	}

	m := NewMapping()
	for _, el := range xmldoc.DescendantsNamed(scope, rule.Source) {
		v, err := rule.Build(el, r)
		if err != nil {
			return nil, fmt.Errorf("building %s collection: %w", name, err)
		}
		m.Set(v.ElementName(), v)
	}

	r.collections[name] = m
	return m, nil
}
