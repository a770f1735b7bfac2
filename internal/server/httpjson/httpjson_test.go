package httpjson

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","oops":1}`))
	w := httptest.NewRecorder()
	var dst struct {
		Name string `json:"name"`
	}
	if err := Decode(w, r, &dst); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestWriteSetsContentType(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, 201, map[string]string{"ok": "yes"})
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if w.Code != 201 {
		t.Errorf("status = %d", w.Code)
	}
}

func TestErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, 500, errors.New("pq: connection refused to 10.0.0.3"))
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if strings.Contains(body.Error, "10.0.0.3") {
		t.Errorf("internal detail leaked: %q", body.Error)
	}

	w = httptest.NewRecorder()
	Error(w, 400, errors.New("name is required"))
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "name is required" {
		t.Errorf("client error message = %q", body.Error)
	}
}

func TestPagination(t *testing.T) {
	cases := []struct {
		query     string
		skip      int
		limit     int
		wantError bool
	}{
		{"", 0, 100, false},
		{"?skip=20&limit=50", 20, 50, false},
		{"?limit=5000", 0, 1000, false}, // clamped to max
		{"?skip=-1", 0, 0, true},
		{"?limit=0", 0, 0, true},
		{"?limit=abc", 0, 0, true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/agents"+tc.query, nil)
		skip, limit, err := Pagination(r, 100, 1000)
		if tc.wantError {
			if err == nil {
				t.Errorf("Pagination(%q): expected error", tc.query)
			}
			continue
		}
		if err != nil {
			t.Errorf("Pagination(%q): %v", tc.query, err)
			continue
		}
		if skip != tc.skip || limit != tc.limit {
			t.Errorf("Pagination(%q) = (%d, %d), want (%d, %d)", tc.query, skip, limit, tc.skip, tc.limit)
		}
	}
}
