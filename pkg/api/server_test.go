package api

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewServer(t *testing.T) {
	catalog := newTestCatalog(t)
	metrics := NewMetricsWith(prometheus.NewRegistry())
	config := ServerConfig{Port: 8080, APIKey: "secret-key"}

	server := NewServer(catalog, config, metrics)
	if server == nil {
		t.Fatal("Expected server to be created")
	}
	if server.catalog != catalog {
		t.Error("Expected server to have the correct catalog")
	}
	if server.config.APIKey != "secret-key" {
		t.Errorf("Expected API key to be 'secret-key', got '%s'", server.config.APIKey)
	}
}

func TestNewRouter_AuthRequired(t *testing.T) {
	router := newTestRouter(t, "secret-key")

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{
			name:           "no key",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong key",
			header:         "wrong-key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid key",
			header:         "secret-key",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequestWithKey(t, router, "GET", "/api/v1/health", tt.header)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestNewRouter_MetricsUnprotected(t *testing.T) {
	router := newTestRouter(t, "secret-key")

	// The scrape endpoint must work without the API key
	w := doRequest(t, router, "GET", "/metrics")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("Expected metrics exposition output")
	}
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/api/v1/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
