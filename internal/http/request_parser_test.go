package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"smartfinances/internal/core"
)

func TestParsePivotQueryDefaults(t *testing.T) {
	q, err := ParsePivotQuery(url.Values{})
	if err != nil {
		t.Fatalf("ParsePivotQuery() error = %v", err)
	}
	if q.Period != core.PeriodMonth {
		t.Errorf("default period = %q, want %q", q.Period, core.PeriodMonth)
	}
	if q.Level != core.LevelCategory {
		t.Errorf("default level = %q, want %q", q.Level, core.LevelCategory)
	}
	if q.Group != core.AllSharingGroups {
		t.Errorf("default group = %q, want %q", q.Group, core.AllSharingGroups)
	}
}

func TestParsePivotQuery(t *testing.T) {
	q, err := ParsePivotQuery(url.Values{
		"period": {"quarter"},
		"level":  {"subcategory"},
		"group":  {"42"},
	})
	if err != nil {
		t.Fatalf("ParsePivotQuery() error = %v", err)
	}
	if q.Period != core.PeriodQuarter || q.Level != core.LevelSubcategory || q.Group != "42" {
		t.Errorf("parsed query = %+v", q)
	}

	if _, err := ParsePivotQuery(url.Values{"period": {"decade"}}); err == nil {
		t.Error("unknown period accepted")
	}
	if _, err := ParsePivotQuery(url.Values{"level": {"vendor"}}); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := ParsePivotQuery(url.Values{"group": {"abc"}}); !errors.Is(err, errInvalidGroup) {
		t.Errorf("non-numeric group error = %v, want errInvalidGroup", err)
	}
}

func TestParseTrendPeriod(t *testing.T) {
	period, err := ParseTrendPeriod(url.Values{})
	if err != nil || period != core.PeriodMonth {
		t.Errorf("ParseTrendPeriod(empty) = %q, %v, want month", period, err)
	}
	period, err = ParseTrendPeriod(url.Values{"period": {"year"}})
	if err != nil || period != core.PeriodYear {
		t.Errorf("ParseTrendPeriod(year) = %q, %v", period, err)
	}
	if _, err := ParseTrendPeriod(url.Values{"period": {"fortnight"}}); err == nil {
		t.Error("unknown trend period accepted")
	}
}

func TestRequestBodyParserForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/income",
		strings.NewReader("description=Lunch+money&amount=12.50"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Error("form body detected as JSON")
	}
	if got := p.Get("description"); got != "Lunch money" {
		t.Errorf("Get(description) = %q", got)
	}
	if got := p.Get("amount"); got != "12.50" {
		t.Errorf("Get(amount) = %q", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestRequestBodyParserJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/income",
		strings.NewReader(`{"description":"Voucher","amount":25.5,"shared":true}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Error("JSON body not detected")
	}
	if got := p.Get("description"); got != "Voucher" {
		t.Errorf("Get(description) = %q", got)
	}
	if got := p.Get("amount"); got != "25.5" {
		t.Errorf("Get(amount) = %q", got)
	}
	if got := p.Get("shared"); got != "true" {
		t.Errorf("Get(shared) = %q", got)
	}
}

func TestRequestBodyParserSanitizes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader("description=%09padded%20%00name%09"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("description"); got != "padded name" {
		t.Errorf("Get(description) = %q, want control bytes stripped", got)
	}
}

func TestRequestBodyParserBadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"broken`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Error("truncated JSON accepted")
	}
}

func TestRequireMethod(t *testing.T) {
	post := httptest.NewRequest(http.MethodPost, "/", nil)
	if resp := RequirePOST(post); resp != nil {
		t.Error("RequirePOST rejected a POST")
	}

	get := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := RequirePOST(get)
	if resp == nil {
		t.Fatal("RequirePOST accepted a GET")
	}
	rec := httptest.NewRecorder()
	resp.Write(rec)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q, want POST", allow)
	}
}
