package utils

import (
	"fmt"
	"math/rand/v2"
	"net/http"
)

func RandomUserAgent() string {
	// Target Chrome major versions roughly within the last ~6 months
	const minMajor = 132
	const maxMajor = 138

	major := rand.IntN(maxMajor-minMajor+1) + minMajor
	return fmt.Sprintf(
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
		major,
	)
}

var defaultHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
	"Connection":      "keep-alive",
}

// ApplyBrowserHeaders sets browser-like defaults on req. Values in extra win
// over the defaults; headers already present on req are left alone.
func ApplyBrowserHeaders(req *http.Request, extra map[string]string) {
	set := func(k, v string) {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	for k, v := range extra {
		set(http.CanonicalHeaderKey(k), v)
	}
	set("User-Agent", RandomUserAgent())
	for k, v := range defaultHeaders {
		set(k, v)
	}
}
