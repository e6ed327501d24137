package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "localhost,.internal")

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/search", "http://proxy.local:3128"},
		{"https://example.com/search", "http://proxy.local:3128"},
		{"http://api.internal/v1", ""},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.url, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("%s: got proxy %q, want %q", tt.url, gotStr, tt.want)
		}
	}
}

func TestNewProxyFunc_SeparateHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://plain:3128", "http://secure:3129", "")
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	got, err := proxy(req)
	if err != nil || got == nil || got.Host != "secure:3129" {
		t.Errorf("expected https proxy, got %v (%v)", got, err)
	}
}
