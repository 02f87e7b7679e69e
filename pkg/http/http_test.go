package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestRedirectLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Get(server.URL + "/")
	assert.ErrorContains(t, err, "stopped after 10 redirects")
}
