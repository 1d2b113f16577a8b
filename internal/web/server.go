// Package web serves the relay's status over HTTP. It only reports; it
// never drives the relay.
package web

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/relay-driver/internal/status"
)

// Snapshotter supplies the state shown on every request. *status.Tracker
// implements it.
type Snapshotter interface {
	Snapshot() status.Snapshot
}

// Server is the read-only status endpoint.
type Server struct {
	src        Snapshotter
	httpServer *http.Server
}

// New returns a Server for addr. Nothing listens until ListenAndServe.
func New(addr string, src Snapshotter) *Server {
	s := &Server{src: src}
	s.httpServer = &http.Server{Addr: addr, Handler: s.routes()}
	return s
}

func (s *Server) routes() http.Handler {
	page := readOnly(s.page)
	mux := http.NewServeMux()
	mux.Handle("/", page)
	mux.Handle("/index.html", page)
	mux.Handle("/index.json", readOnly(s.json))
	return mux
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error { return s.httpServer.ListenAndServe() }

// Shutdown stops the listener and waits for open requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.httpServer.Shutdown(ctx) }

// readOnly rejects anything but GET and HEAD, and stops clients caching a
// relay state that may change at any moment.
func readOnly(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		h(w, r)
	})
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	// "/" also catches every unregistered path.
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, s.src.Snapshot()); err != nil {
		log.WithError(err).WithField("path", r.URL.Path).Warn("web: render status page")
	}
}

func (s *Server) json(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(status.FormatJSON(s.src.Snapshot())); err != nil {
		log.WithError(err).Debug("web: write status json")
	}
}
