package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"honeypot-bot/internal/analytics"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

const statsWindow = 24 * time.Hour

// TrapCounter reports how many decoy channels are armed.
type TrapCounter interface {
	Len() int
}

type Stats struct {
	ArmedTraps int              `json:"armed_traps"`
	Window     string           `json:"window"`
	Audit      analytics.Report `json:"audit"`
}

type Server struct {
	addr      string
	maxConns  int
	traps     TrapCounter
	analytics *analytics.Service
	logger    *zap.Logger
	server    *http.Server
}

func New(addr string, maxConns int, traps TrapCounter, analyticsEngine *analytics.Service, logger *zap.Logger) *Server {
	s := &Server{addr: addr, maxConns: maxConns, traps: traps, analytics: analyticsEngine, logger: logger}
	s.server = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := Stats{ArmedTraps: s.traps.Len(), Window: statsWindow.String()}
	if s.analytics != nil {
		report, err := s.analytics.Report(r.Context(), "", time.Now().Add(-statsWindow))
		if err != nil {
			s.logger.Warn("stats report failed", zap.Error(err))
			http.Error(w, "stats unavailable", http.StatusInternalServerError)
			return
		}
		stats.Audit = report
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

// Start listens in the background; errors other than shutdown are logged.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if s.maxConns > 0 {
		listener = netutil.LimitListener(listener, s.maxConns)
	}
	go func() {
		s.logger.Info("health endpoint enabled", zap.String("addr", s.addr))
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server error", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
