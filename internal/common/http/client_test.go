// internal/common/http/client_test.go
package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoWithContextAppliesDefaultUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewClientWithUserAgent(time.Second, "ResearchAgent/1.0")
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.DoWithContext(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "ResearchAgent/1.0", got)
}

func TestDoWithContextKeepsExplicitUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewClientWithUserAgent(time.Second, "ResearchAgent/1.0")
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "CustomFetcher/2.0")

	resp, err := client.DoWithContext(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "CustomFetcher/2.0", got)
}
