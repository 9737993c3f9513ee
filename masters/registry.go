package masters

import (
	"github.com/amanabt/tendril-connector-tally/cache"
	"github.com/amanabt/tendril-connector-tally/report"
)

// Registry hands out master reports memoized per company, so repeated
// lookups share one acquired document instead of refetching.
type Registry struct {
	transport report.Transport
	opts      []report.Option
	units     *cache.Cache[string, *UnitsReport]
}

// NewRegistry creates a registry using the given transport. opts are
// applied to every report the registry creates.
func NewRegistry(t report.Transport, opts ...report.Option) *Registry {
	return &Registry{
		transport: t,
		opts:      opts,
		units:     cache.New[string, *UnitsReport](16),
	}
}

// Units returns the memoized units report for company, creating it on
// first use.
func (rg *Registry) Units(company string) *UnitsReport {
	return rg.units.GetOrSet(company, func() *UnitsReport {
		return NewUnitsReport(company, rg.transport, rg.opts...)
	})
}
