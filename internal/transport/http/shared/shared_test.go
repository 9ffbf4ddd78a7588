package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=25&offset=50", nil)
	p := ParsePagination(r, 20, 100)
	if p.Limit != 25 || p.Offset != 50 {
		t.Fatalf("unexpected pagination: %+v", p)
	}

	r = httptest.NewRequest("GET", "/?limit=9999", nil)
	p = ParsePagination(r, 20, 100)
	if p.Limit != 100 {
		t.Fatalf("expected limit clamp to 100, got %d", p.Limit)
	}

	r = httptest.NewRequest("GET", "/?limit=abc&offset=-3", nil)
	p = ParsePagination(r, 20, 100)
	if p.Limit != 20 || p.Offset != 0 {
		t.Fatalf("expected defaults, got %+v", p)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2026-03-09"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseDate("2026-03-09T12:00:00Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseDate("next tuesday"); err == nil {
		t.Fatal("expected an error")
	}
	if parsed, err := ParseDate(""); err != nil || !parsed.IsZero() {
		t.Fatal("expected zero time with no error for empty input")
	}
}

func TestValidatorCoordinates(t *testing.T) {
	v := NewValidator()
	v.Coordinates("lat", 91, "lng", -181)
	issues := v.Issues()
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", issues)
	}

	v = NewValidator()
	v.Coordinates("lat", 51.5, "lng", -0.12)
	if v.HasIssues() {
		t.Fatalf("expected no issues, got %v", v.Issues())
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start, _ := v.Date("start", "2026-03-10")
	end, _ := v.Date("end", "2026-03-09")
	v.DateOrder("start", start, "end", end)
	if !v.HasIssues() {
		t.Fatal("expected issues for inverted range")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Fatalf("expected remote host, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.5" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}
