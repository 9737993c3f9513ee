package report

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/samber/lo"
)

// RequestHeader is the structured request header variant. Plain export
// requests use a single TALLYREQUEST text element instead; collection
// queries need the full version/type/id form.
type RequestHeader struct {
	Version      int
	TallyRequest string
	Type         string
	ID           string
}

// BuildRequestHeader assembles the HEADER element for this report.
func (r *Report) BuildRequestHeader() *etree.Element {
	h := etree.NewElement("HEADER")
	if r.header == nil {
		h.CreateElement("TALLYREQUEST").SetText(r.headerText)
		return h
	}
	h.CreateElement("VERSION").SetText(strconv.Itoa(r.header.Version))
	h.CreateElement("TALLYREQUEST").SetText(r.header.TallyRequest)
	h.CreateElement("TYPE").SetText(r.header.Type)
	h.CreateElement("ID").SetText(r.header.ID)
	return h
}

// BuildFetchList appends one FETCH element per item under parent.
// Duplicates are dropped, first occurrence wins.
func BuildFetchList(parent *etree.Element, items []string) {
	for _, item := range lo.Uniq(items) {
		parent.CreateElement("FETCH").SetText(item)
	}
}

// SetStaticVariables writes the static variables Tally expects on every
// export query: XML export format, unicode encoding and, when the report
// is scoped, the current company.
func (r *Report) SetStaticVariables(sv *etree.Element) {
	sv.CreateElement("SVEXPORTFORMAT").SetText("$$SysName:XML")
	sv.CreateElement("ENCODINGTYPE").SetText("UNICODE")
	if r.company != "" {
		cc := sv.CreateElement("SVCURRENTCOMPANY")
		cc.CreateAttr("TYPE", "String")
		cc.SetText(r.company)
	}
}

// SetRequestDate writes the SVFROMDATE/SVTODATE/SVCURRENTDATE triple in
// Tally's dd-mm-yyyy format. Nil bounds default to the current financial
// year.
func SetRequestDate(sv *etree.Element, from, to *time.Time) {
	rng := DateRange(from, to)
	for _, f := range []struct {
		tag string
		t   time.Time
	}{
		{"SVFROMDATE", rng.From},
		{"SVTODATE", rng.To},
		{"SVCURRENTDATE", rng.Current},
	} {
		el := sv.CreateElement(f.tag)
		el.CreateAttr("TYPE", "Date")
		el.SetText(FormatDate(f.t))
	}
}
