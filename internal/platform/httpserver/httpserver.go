package httpserver

import (
	"net/http"
	"time"
)

const minWriteTimeout = 2 * time.Minute

// New builds the API server. Verification holds the response open across document
// fetch, rasterization and up to four OCR passes per page, so the write timeout is
// derived from that budget instead of a fixed default.
func New(addr string, handler http.Handler, requestBudget time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      max(requestBudget+10*time.Second, minWriteTimeout),
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10,
	}
}
