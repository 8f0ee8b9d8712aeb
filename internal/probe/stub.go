package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/okian/bizlens/internal/adapters/upstream"
	"github.com/okian/bizlens/pkg/logger"
)

// StubHandler serves f on the collaborator paths. Requests without an
// Authorization header are rejected like the real services do.
func StubHandler(f *Fixture) http.Handler {
	mux := http.NewServeMux()
	serve := func(path string, list []map[string]any) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if list == nil {
				list = []map[string]any{}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(list)
		})
	}
	serve(upstream.PathEntites, f.Entites)
	serve(upstream.PathSecteurs, f.Secteurs)
	serve(upstream.PathSousSecteurs, f.SousSecteurs)
	serve(upstream.PathTypeEntreprises, f.TypeEntreprises)
	serve(upstream.PathProduits, f.Produits)
	return mux
}

// Stub is a running stub upstream.
type Stub struct {
	srv *http.Server
	URL string
}

// StartStub listens on addr and serves f until Close.
func StartStub(ctx context.Context, addr string, f *Fixture) (*Stub, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("stub listen: %w", err)
	}
	s := &Stub{
		srv: &http.Server{Handler: StubHandler(f), ReadHeaderTimeout: 5 * time.Second},
		URL: "http://" + ln.Addr().String(),
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Error(ctx, "stub upstream stopped", logger.Error(err))
		}
	}()
	logger.Get().Info(ctx, "stub upstream listening",
		logger.String("url", s.URL),
		logger.Int("entites", len(f.Entites)),
		logger.Int("produits", len(f.Produits)))
	return s, nil
}

// Close stops the stub.
func (s *Stub) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
