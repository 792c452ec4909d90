package utils_test

import (
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sonroyaalmerol/guildtune/internal/utils"
)

func TestPrettyTime(t *testing.T) {
	tests := []struct {
		sec  int
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{200, "3:20"},
		{3600, "1:00:00"},
		{3925, "1:05:25"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := utils.PrettyTime(tt.sec); got != tt.want {
			t.Errorf("PrettyTime(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
	if got := utils.PrettyDuration(3*time.Minute + 20*time.Second + 900*time.Millisecond); got != "3:20" {
		t.Errorf("PrettyDuration() = %q, want %q", got, "3:20")
	}
}

func TestEscapeMd(t *testing.T) {
	got := utils.EscapeMd("*bold* _it_ `code` ~x~")
	want := "\\*bold\\* \\_it\\_ \\`code\\` \\~x\\~"
	if got != want {
		t.Errorf("EscapeMd() = %q, want %q", got, want)
	}
}

func TestShuffleSlicePreservesElements(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	got := slices.Clone(in)
	utils.ShuffleSlice(got)
	slices.Sort(got)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("ShuffleSlice() changed elements (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	if got := utils.Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate() = %q, want %q", got, "hello")
	}
	if got := utils.Truncate("hello world", 6); got != "hello…" {
		t.Errorf("Truncate() = %q, want %q", got, "hello…")
	}
}

func TestApplyBrowserHeaders(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "audio/*")
	utils.ApplyBrowserHeaders(req, map[string]string{"referer": "https://www.youtube.com/"})

	if got := req.Header.Get("Accept"); got != "audio/*" {
		t.Errorf("Accept = %q, want existing value kept", got)
	}
	if got := req.Header.Get("Referer"); got != "https://www.youtube.com/" {
		t.Errorf("Referer = %q, want extra value", got)
	}
	if req.Header.Get("User-Agent") == "" {
		t.Error("User-Agent not set")
	}
}
