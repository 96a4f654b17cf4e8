// Package server is the network edge of the arena: websocket clients,
// the HTTP routes around them and the admin guard.
package server

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"arena-server/internal/config"
	"arena-server/internal/game"
	"arena-server/internal/metrics"
	"arena-server/internal/snapshot"
	"arena-server/internal/store"
)

// Engine is the part of the game the transport drives
type Engine interface {
	HandleMessage(s game.Sender, frame []byte)
	Close(s game.Sender)
	PlayerCount() int
	CurrentTick() int
	Mode() string
	Snapshot() snapshot.State
	Broadcast(packet string)
}

// Server owns the hub and builds the HTTP handler
type Server struct {
	cfg      config.Config
	engine   Engine
	hub      *Hub
	auth     *Auth
	metrics  *metrics.Metrics
	db       *store.DB
	matchID  int64
	log      *zap.Logger
	upgrader websocket.Upgrader
}

type Option func(*Server)

// WithStore exposes the kill feed and sessions of matchID under /api
func WithStore(db *store.DB, matchID int64) Option {
	return func(s *Server) {
		s.db = db
		s.matchID = matchID
	}
}

// New wires a server around engine. m may be nil.
func New(cfg config.Config, engine Engine, m *metrics.Metrics, log *zap.Logger, opts ...Option) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	auth, err := NewAuth(cfg.Admin)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		auth:    auth,
		metrics: m,
		log:     log,
		hub:     NewHub(engine, m, cfg.Server.MaxConnections, cfg.Game.MaxConnectionsPerIP, log.Named("hub")),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(cfg.Server.AllowedOrigins),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !auth.Enabled() {
		log.Info("admin endpoints disabled, no password hash configured")
	}
	return s, nil
}

// Run services client disconnects until ctx is done
func (s *Server) Run(ctx context.Context) { s.hub.Run(ctx) }

func (s *Server) Hub() *Hub { return s.hub }

// Handler builds the router. It starts no goroutines.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log.Named("http")))

	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleSocket)
	r.Get("/ping", s.handlePing)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/qr.png", s.handleQR)
		if s.db != nil {
			r.Get("/kills", s.handleKills)
			r.Get("/sessions", s.handleSessions)
		}
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/arena.png", s.handleArena)
			r.Post("/announce", s.handleAnnounce)
		})
	})

	return r
}

// checkOrigin allows same-host origins, clients that send none and the
// configured list ("*" allows everything)
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
