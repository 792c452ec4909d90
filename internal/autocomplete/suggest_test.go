package autocomplete_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sonroyaalmerol/guildtune/internal/autocomplete"
)

func TestSuggestYouTube(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "daft" {
			t.Errorf("q = %q", got)
		}
		_, _ = w.Write([]byte(`["daft",["daft punk","daft punk one more time","` + strings.Repeat("x", 150) + `"]]`))
	}))
	defer srv.Close()

	s := &autocomplete.Suggester{HTTP: srv.Client(), Endpoint: srv.URL}
	got := s.Suggest(context.Background(), "daft", 2)

	if len(got) != 2 {
		t.Fatalf("got %d choices, want 2", len(got))
	}
	if got[0].Name != "YouTube: daft punk" || got[0].Value != "daft punk" {
		t.Errorf("first choice = %+v", got[0])
	}

	long := s.Suggest(context.Background(), "daft", 10)
	if n := len([]rune(long[2].Name)); n > 100 {
		t.Errorf("choice name has %d runes", n)
	}
}

func TestSuggestSurvivesBrokenSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := &autocomplete.Suggester{HTTP: srv.Client(), Endpoint: srv.URL}
	if got := s.Suggest(context.Background(), "x", 5); len(got) != 0 {
		t.Errorf("got %d choices from a failing source", len(got))
	}
}

func TestNames(t *testing.T) {
	got := autocomplete.Names([]string{"a", "b"})
	if len(got) != 2 || got[1].Name != "b" || got[1].Value != "b" {
		t.Errorf("Names() = %+v", got)
	}
}
