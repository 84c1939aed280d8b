// Package httpapi is the transport layer: a plain net/http.ServeMux
// exposing the /v1 endpoint table (spec §6), grounded on the teacher's
// internal/rpc/http_server.go (mux shape, health/readiness endpoints,
// graceful shutdown on context cancellation) and on
// original_source/app/models/base_models.py + router_utils.paginate for
// the envelope and pagination behavior.
package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hdc-platform/metadata-catalog/internal/eventbus"
	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/telemetry"
)

// Server wires the store, permission authority and event publisher behind
// the HTTP surface.
type Server struct {
	Store      store.Store
	Authority  permission.Authority
	Publisher  *eventbus.Publisher
	Templates  eventbus.TemplateResolver
	Identity   IdentityExtractor
	Log        *zap.Logger

	addr       string
	httpServer *http.Server
	listener   net.Listener
}

// NewServer constructs a Server listening on addr once Start is called.
func NewServer(addr string, st store.Store, authority permission.Authority, publisher *eventbus.Publisher, templates eventbus.TemplateResolver, log *zap.Logger) *Server {
	return &Server{
		Store:     st,
		Authority: authority,
		Publisher: publisher,
		Templates: templates,
		Identity:  NewHeaderIdentityExtractor(),
		Log:       log,
		addr:      addr,
	}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/health", s.handleHealth)

	mux.HandleFunc("/v1/item/", s.requireIdentity(s.handleItemByID))
	mux.HandleFunc("/v1/items/batch/bequeath/", s.requireIdentity(s.handleBequeath))
	mux.HandleFunc("/v1/items/batch/", s.requireIdentity(s.handleItemsBatch))
	mux.HandleFunc("/v1/items/search/", s.requireIdentity(s.handleItemsSearch))

	mux.HandleFunc("/v1/template/", s.requireIdentity(s.handleTemplate))
	mux.HandleFunc("/v1/templates/", s.requireIdentity(s.handleTemplatesList))

	mux.HandleFunc("/v1/collection/items/", s.requireIdentity(s.handleCollectionItems))
	mux.HandleFunc("/v1/collection/search/", s.requireIdentity(s.handleCollectionSearch))
	mux.HandleFunc("/v1/collection/", s.requireIdentity(s.handleCollection))

	mux.HandleFunc("/v1/favourite/", s.requireIdentity(s.handleFavourite))
	mux.HandleFunc("/v1/favourites/", s.requireIdentity(s.handleFavouritesList))

	mux.HandleFunc("/v1/lineage/", s.requireIdentity(s.handleLineage))

	return mux
}

// Start listens on s.addr and serves until ctx is cancelled, then shuts
// down gracefully — mirrors the teacher's HTTPServer.Start.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Handler:      telemetry.WrapHandler("catalog.http", s.mux()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("httpapi: listen on %s: %w", s.addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	if s.Log != nil {
		s.Log.Info("httpapi listening", zap.String("addr", s.listener.Addr().String()))
	}
	err = s.httpServer.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Addr returns the bound address, useful when addr was ":0" for tests.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// handleHealth reports 204 when both the database and event bus are
// reachable, else 503 (spec §6: "GET /v1/health | Liveness").
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.Store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if s.Publisher != nil {
		if err := s.Publisher.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
