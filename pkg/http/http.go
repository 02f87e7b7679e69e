package http

import (
	"fmt"
	"net/http"
	"time"
)

const maxRedirects = 10

// NewClient creates the client used for catalog requests and asset downloads.
// A zero timeout disables the client timeout.
func NewClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// release downloads redirect to the object storage
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
