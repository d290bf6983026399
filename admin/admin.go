// Package admin serves this agent's Prometheus metrics and a liveness
// probe over plain HTTP, adapted from pkg/admin's handler (which also
// serves pprof debug routes this agent has no use for, so that branch is
// dropped here).
package admin

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handler struct {
	promHandler http.Handler
	ready       *atomic.Bool
}

// NewServer returns an http.Server listening on addr. /ready reports
// whatever ready holds; the caller sets it to true once Initialize has
// succeeded and back to false when shutdown begins, so /ready reflects
// this agent's registration state with DIR.
func NewServer(addr string, ready *atomic.Bool) *http.Server {
	h := &handler{promHandler: promhttp.Handler(), ready: ready}
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/metrics":
		h.promHandler.ServeHTTP(w, req)
	case "/ready":
		if h.ready.Load() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready\n"))
	default:
		http.NotFound(w, req)
	}
}
