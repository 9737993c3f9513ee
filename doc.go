// Package tally provides a client-side connector for the Tally accounting
// system's XML report/export protocol.
//
// Tally exposes reports and masters over an XML-over-HTTP interface. This
// package converts those loosely-typed XML responses into typed,
// attribute-accessible Go values, with transparent caching of raw responses
// and degraded-mode fallback when the Tally instance is unreachable.
//
// # Quick Start
//
//	import (
//	    "github.com/amanabt/tendril-connector-tally/masters"
//	    "github.com/amanabt/tendril-connector-tally/transport"
//	)
//
//	engine := transport.New(transport.WithHost("localhost"), transport.WithPort(9002))
//	rpt := masters.NewUnitsReport("Acme Industries", engine)
//
//	units, err := rpt.Units(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, name := range units.Keys() {
//	    u, _ := rpt.Unit(ctx, name)
//	    fmt.Println(u.Name, u.DecimalPlaces)
//	}
//
// # Architecture
//
// The core of the connector is the declarative field-extraction engine in
// the schema package: each typed element declares a spec table mapping
// output fields to extraction rules (attribute, direct child, descendant,
// list container, multiline container), and a single generic routine applies
// the table to a parsed node, enforcing the per-field optional/required
// policy.
//
// Around the engine:
//
//   - report: one request/response cycle with a lazily acquired, memoized
//     document and memoized named collections of typed elements.
//   - transport: builds the ENVELOPE request, performs the HTTP exchange,
//     and persists raw responses for offline fallback.
//   - cachestore: the on-disk raw response store.
//   - masters: concrete report and element types (units and friends).
//
// # Error Policy
//
// Extraction failures are classified by Fault kind. Benign absence or
// malformed text on an optional field resolves silently to the zero value;
// the same failure on a required field, or an ambiguous match on any field,
// aborts the extraction. Explicit value-validation failures always
// propagate regardless of the optional flag.
package tally
