package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchRendersRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/sheet-123/export") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "csv" {
			t.Errorf("expected format=csv, got %q", r.URL.RawQuery)
		}
		w.Write([]byte("Topic,Answer\nCheck-in,From 3 PM\n,,\nSpa,\"Open 9-21, booking required\"\n"))
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL

	got, err := c.Fetch(context.Background(), "sheet-123")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := "Topic | Answer\nCheck-in | From 3 PM\nSpa | Open 9-21, booking required"
	if got != want {
		t.Errorf("rendered text mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestFetchEmptyID(t *testing.T) {
	if _, err := NewClient().Fetch(context.Background(), ""); err == nil {
		t.Error("expected error for empty spreadsheet id")
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL
	if _, err := c.Fetch(context.Background(), "private-sheet"); err == nil {
		t.Error("expected error on 403")
	}
}

func TestRenderCSVRaggedRows(t *testing.T) {
	got, err := renderCSV(strings.NewReader("a,b,c\nd\n"))
	if err != nil {
		t.Fatalf("renderCSV: %v", err)
	}
	if got != "a | b | c\nd" {
		t.Errorf("got %q", got)
	}
}
