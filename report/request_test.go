package report

import (
	"testing"
	"time"

	"github.com/beevik/etree"
)

func childText(t *testing.T, el *etree.Element, tag string) string {
	t.Helper()
	c := el.SelectElement(tag)
	if c == nil {
		t.Fatalf("element %s not found under %s", tag, el.Tag)
	}
	return c.Text()
}

func TestBuildRequestHeader_Plain(t *testing.T) {
	r := New("Acme", nil)

	h := r.BuildRequestHeader()
	if h.Tag != "HEADER" {
		t.Errorf("tag = %s; want HEADER", h.Tag)
	}
	if got := childText(t, h, "TALLYREQUEST"); got != DefaultHeader {
		t.Errorf("TALLYREQUEST = %q; want %q", got, DefaultHeader)
	}
	if h.SelectElement("VERSION") != nil {
		t.Error("plain header should not carry a VERSION")
	}
}

func TestBuildRequestHeader_Structured(t *testing.T) {
	r := New("Acme", nil, WithHeader(RequestHeader{
		Version:      1,
		TallyRequest: "Export",
		Type:         "Collection",
		ID:           "List of Units",
	}))

	h := r.BuildRequestHeader()
	if got := childText(t, h, "VERSION"); got != "1" {
		t.Errorf("VERSION = %q; want 1", got)
	}
	if got := childText(t, h, "TALLYREQUEST"); got != "Export" {
		t.Errorf("TALLYREQUEST = %q; want Export", got)
	}
	if got := childText(t, h, "TYPE"); got != "Collection" {
		t.Errorf("TYPE = %q; want Collection", got)
	}
	if got := childText(t, h, "ID"); got != "List of Units" {
		t.Errorf("ID = %q; want List of Units", got)
	}
}

func TestSetStaticVariables(t *testing.T) {
	r := New("Acme Industries", nil)

	sv := etree.NewElement("STATICVARIABLES")
	r.SetStaticVariables(sv)

	if got := childText(t, sv, "SVEXPORTFORMAT"); got != "$$SysName:XML" {
		t.Errorf("SVEXPORTFORMAT = %q", got)
	}
	if got := childText(t, sv, "ENCODINGTYPE"); got != "UNICODE" {
		t.Errorf("ENCODINGTYPE = %q", got)
	}
	cc := sv.SelectElement("SVCURRENTCOMPANY")
	if cc == nil {
		t.Fatal("SVCURRENTCOMPANY missing")
	}
	if cc.Text() != "Acme Industries" {
		t.Errorf("SVCURRENTCOMPANY = %q", cc.Text())
	}
	if cc.SelectAttrValue("TYPE", "") != "String" {
		t.Error("SVCURRENTCOMPANY should be typed String")
	}
}

func TestSetStaticVariables_NoCompany(t *testing.T) {
	r := New("", nil)

	sv := etree.NewElement("STATICVARIABLES")
	r.SetStaticVariables(sv)

	if sv.SelectElement("SVCURRENTCOMPANY") != nil {
		t.Error("SVCURRENTCOMPANY should be omitted without a company")
	}
}

func TestBuildFetchList(t *testing.T) {
	parent := etree.NewElement("FETCHLIST")
	BuildFetchList(parent, []string{"Name", "Parent", "Name"})

	fetches := parent.SelectElements("FETCH")
	if len(fetches) != 2 {
		t.Fatalf("FETCH count = %d; want 2 after dedupe", len(fetches))
	}
	if fetches[0].Text() != "Name" || fetches[1].Text() != "Parent" {
		t.Errorf("fetch items = %q, %q; want Name, Parent", fetches[0].Text(), fetches[1].Text())
	}
}

func TestSetRequestDate(t *testing.T) {
	from := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	sv := etree.NewElement("STATICVARIABLES")
	SetRequestDate(sv, &from, &to)

	if got := childText(t, sv, "SVFROMDATE"); got != "01-04-2024" {
		t.Errorf("SVFROMDATE = %q; want 01-04-2024", got)
	}
	if got := childText(t, sv, "SVTODATE"); got != "30-06-2024" {
		t.Errorf("SVTODATE = %q; want 30-06-2024", got)
	}
	cd := sv.SelectElement("SVCURRENTDATE")
	if cd == nil || cd.SelectAttrValue("TYPE", "") != "Date" {
		t.Error("SVCURRENTDATE should exist and be typed Date")
	}
}

func TestDateRange_Defaults(t *testing.T) {
	rng := DateRange(nil, nil)

	now := time.Now()
	if rng.To.Year() != now.Year() || rng.To.YearDay() != now.YearDay() {
		t.Errorf("To = %v; want today", rng.To)
	}
	if rng.From.Month() != time.April || rng.From.Day() != 1 {
		t.Errorf("From = %v; want April 1", rng.From)
	}
	if rng.From.After(rng.To) {
		t.Errorf("From %v should not be after To %v", rng.From, rng.To)
	}
}

func TestFinancialYearStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 2024},
		{time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), 2023},
		{time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 2024},
	}

	for _, tt := range tests {
		got := financialYearStart(tt.in)
		if got.Year() != tt.want || got.Month() != time.April || got.Day() != 1 {
			t.Errorf("financialYearStart(%v) = %v; want 01 April %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "05-01-2024" {
		t.Errorf("FormatDate = %q; want 05-01-2024", got)
	}
}
