package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"

	tally "github.com/amanabt/tendril-connector-tally"
	"github.com/amanabt/tendril-connector-tally/cachestore"
	"github.com/amanabt/tendril-connector-tally/xmldoc"
)

func testQuery() QueryParams {
	h := etree.NewElement("HEADER")
	h.CreateElement("TALLYREQUEST").SetText("Export Data")

	b := etree.NewElement("EXPORTDATA")
	b.CreateElement("REQUESTDESC").CreateElement("REPORTNAME").SetText("List of Accounts")

	return QueryParams{Header: h, Body: b}
}

// engineFor points an Engine at a test server.
func engineFor(t *testing.T, srv *httptest.Server, opts ...Option) *Engine {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parsing test server port: %v", err)
	}
	opts = append([]Option{WithHost(u.Hostname()), WithPort(port)}, opts...)
	return New(opts...)
}

func TestSerialize_EnvelopeShape(t *testing.T) {
	data, err := Serialize(testQuery())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	doc, err := xmldoc.Parse(data)
	if err != nil {
		t.Fatalf("parsing serialized query: %v", err)
	}
	if doc.Root().Tag != "ENVELOPE" {
		t.Errorf("root = %s; want ENVELOPE", doc.Root().Tag)
	}
	if xmldoc.FindNamed(doc, "header") == nil {
		t.Error("envelope should carry a HEADER")
	}
	body := xmldoc.FindNamed(doc, "body")
	if body == nil {
		t.Fatal("envelope should carry a BODY")
	}
	if len(xmldoc.ChildrenNamed(body, "exportdata")) != 1 {
		t.Error("BODY should wrap the query body")
	}
}

func TestSerialize_Incomplete(t *testing.T) {
	if _, err := Serialize(QueryParams{}); err == nil {
		t.Error("Serialize without header and body should fail")
	}
}

func TestExecute_PostsAndParses(t *testing.T) {
	var gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `<ENVELOPE><BODY><DATA><UNIT><NAME>Nos</NAME></UNIT></DATA></BODY></ENVELOPE>`)
	}))
	defer srv.Close()

	e := engineFor(t, srv)
	doc, err := e.Execute(context.Background(), testQuery(), "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if gotContentType != "application/xml" {
		t.Errorf("Content-Type = %q; want application/xml", gotContentType)
	}
	if !strings.Contains(string(gotBody), "<ENVELOPE>") {
		t.Errorf("posted body should be an envelope, got %q", gotBody)
	}
	if unit := xmldoc.FindNamed(doc, "unit"); unit == nil {
		t.Error("parsed response should contain the unit element")
	}
}

func TestExecute_UnreachableIsNotAvailable(t *testing.T) {
	// A closed server guarantees a connection failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	e := engineFor(t, srv)
	_, err := e.Execute(context.Background(), testQuery(), "")
	if !errors.Is(err, tally.ErrNotAvailable) {
		t.Errorf("Execute error = %v; want ErrNotAvailable", err)
	}
}

func TestExecute_WritesCache(t *testing.T) {
	response := `<ENVELOPE><BODY><DATA/></BODY></ENVELOPE>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, response)
	}))
	defer srv.Close()

	store := cachestore.New(t.TempDir())
	e := engineFor(t, srv, WithStore(store))

	if _, err := e.Execute(context.Background(), testQuery(), "masters.units.Acme"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	cached, err := store.Read("masters.units.Acme.xml")
	if err != nil {
		t.Fatalf("cached response missing: %v", err)
	}
	if string(cached) != response {
		t.Errorf("cached = %q; want raw response bytes", cached)
	}
}

func TestExecute_NoCacheNameSkipsWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<ENVELOPE/>`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	store := cachestore.New(dir)
	e := engineFor(t, srv, WithStore(store))

	if _, err := e.Execute(context.Background(), testQuery(), ""); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := store.Read(".xml"); err == nil {
		t.Error("no cache entry should be written without a cache name")
	}
}

func TestExecute_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := engineFor(t, srv)
	_, err := e.Execute(context.Background(), testQuery(), "")
	if err == nil {
		t.Fatal("Execute should fail on a non-200 response")
	}
	if errors.Is(err, tally.ErrNotAvailable) {
		t.Error("an HTTP error response is not an unreachable condition")
	}
}

func TestQueryString(t *testing.T) {
	s := QueryString(testQuery())
	if !strings.Contains(s, "ENVELOPE") || !strings.Contains(s, "List of Accounts") {
		t.Errorf("QueryString = %q; want serialized envelope", s)
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New()
	if e.URL() != "http://localhost:9002" {
		t.Errorf("URL = %q; want default loopback endpoint", e.URL())
	}
}
