// Package masters exposes Tally master data as typed reports.
//
// Each master type pairs a typed element (built by the schema extraction
// engine) with a report that knows how to request the corresponding
// collection from Tally.
package masters

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	tally "github.com/amanabt/tendril-connector-tally"
	"github.com/amanabt/tendril-connector-tally/report"
	"github.com/amanabt/tendril-connector-tally/schema"
)

// Unit is a unit-of-measure master.
type Unit struct {
	Name            string
	OriginalName    string
	DecimalPlaces   int
	IsSimpleUnit    bool
	AdditionalUnits string
	Conversion      *float64
}

// NewUnit extracts a Unit from its response node.
func NewUnit(el *etree.Element, ctx schema.Context) (*Unit, error) {
	u := &Unit{}
	spec := schema.Spec{Elements: map[string]schema.Rule{
		"name":            schema.Text(&u.Name, "name"),
		"originalname":    schema.Text(&u.OriginalName, "originalname"),
		"decimalplaces":   schema.Int(&u.DecimalPlaces, "decimalplaces"),
		"issimpleunit":    schema.YesNo(&u.IsSimpleUnit, "issimpleunit"),
		"additionalunits": schema.Text(&u.AdditionalUnits, "additionalunits"),
		"conversion":      schema.FloatOpt(&u.Conversion, "conversion"),
	}}
	if err := schema.Apply(spec, el, ctx); err != nil {
		return nil, fmt.Errorf("extracting unit: %w", err)
	}
	return u, nil
}

// ElementName keys the unit in its collection mapping.
func (u *Unit) ElementName() string {
	return u.Name
}

// String implements fmt.Stringer.
func (u *Unit) String() string {
	return fmt.Sprintf("<Unit %s>", u.Name)
}

// unitFetchList names the unit fields requested from Tally.
var unitFetchList = []string{
	"Name",
	"OriginalName",
	"DecimalPlaces",
	"IsSimpleUnit",
	"AdditionalUnits",
	"Conversion",
}

// UnitsReport requests the unit masters collection for one company.
type UnitsReport struct {
	*report.Report
}

// NewUnitsReport creates a units report for company. Extra options may
// supply a store, logger or custom header.
func NewUnitsReport(company string, t report.Transport, opts ...report.Option) *UnitsReport {
	base := []report.Option{
		report.WithHeader(report.RequestHeader{
			Version:      1,
			TallyRequest: "Export",
			Type:         "Collection",
			ID:           "List of Units",
		}),
		report.WithContainer("COLLECTION"),
		report.WithCacheNamespace("masters.units"),
		report.WithBody(unitsBody),
		report.WithContent("units", report.ContentRule{
			Source: "unit",
			Build: func(el *etree.Element, r *report.Report) (report.Named, error) {
				return NewUnit(el, r)
			},
		}),
	}
	return &UnitsReport{Report: report.New(company, t, append(base, opts...)...)}
}

// unitsBody assembles the collection query body.
func unitsBody(r *report.Report) (*etree.Element, error) {
	desc := etree.NewElement("DESC")
	sv := desc.CreateElement("STATICVARIABLES")
	r.SetStaticVariables(sv)

	tdl := desc.CreateElement("TDL").CreateElement("TDLMESSAGE")
	coll := tdl.CreateElement("COLLECTION")
	coll.CreateAttr("NAME", "List of Units")
	coll.CreateAttr("ISMODIFY", "No")
	coll.CreateElement("TYPE").SetText("Unit")
	report.BuildFetchList(coll, unitFetchList)

	return desc, nil
}

// Units returns the unit masters keyed case-insensitively by name.
func (r *UnitsReport) Units(ctx context.Context) (*report.Mapping, error) {
	return r.Collection(ctx, "units")
}

// Unit returns a single unit master by name.
func (r *UnitsReport) Unit(ctx context.Context, name string) (*Unit, error) {
	units, err := r.Units(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := units.Get(name)
	if !ok {
		return nil, &tally.Fault{Kind: tally.FaultMissing, Field: "units", Source: name,
			Err: fmt.Errorf("unit %q not found", name)}
	}
	return v.(*Unit), nil
}
