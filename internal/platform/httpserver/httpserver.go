package httpserver

import (
	"net/http"
	"time"
)

// New builds the server fronting the registration API. ReadHeaderTimeout
// bounds clients that open a connection and never finish their headers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
