package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"arena-server/internal/codec"
	"arena-server/internal/render"
	"arena-server/internal/snapshot"
)

const (
	pingFrames     = 5
	maxBodySize    = 4096
	maxAnnounceLen = 100
	defaultListLen = 50
	maxListLen     = 500
)

// handleSocket upgrades a game connection. The client gets the two
// confirmation frames before anything else.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		s.handleStatus(w, r)
		return
	}

	ip := clientIP(r)
	if err := s.hub.Admit(ip); err != nil {
		s.log.Info("connection rejected", zap.String("ip", ip), zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.Release(ip)
		s.log.Info("upgrade failed", zap.String("ip", ip), zap.Error(err))
		return
	}

	client := NewClient(s.hub, conn, ip, s.cfg.Server.MessagesPerSec, s.cfg.Server.MessageBurst)
	s.hub.add(client)
	client.SendRaw([]byte("."))
	client.SendRaw([]byte("+"))

	go client.WritePump()
	go client.ReadPump()
}

// handlePing answers a latency probe with a few text frames and closes
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	for i := 0; i < pingFrames; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("ping!")); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Mode        string `json:"mode"`
	Tick        int    `json:"tick"`
	Players     int    `json:"players"`
	MaxPlayers  int    `json:"max_players"`
	Connections int    `json:"connections"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Mode:        s.engine.Mode(),
		Tick:        s.engine.CurrentTick(),
		Players:     s.engine.PlayerCount(),
		MaxPlayers:  s.cfg.Game.MaxPlayers,
		Connections: s.hub.ClientCount(),
	})
}

// handleQR encodes the public join address
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	target := s.cfg.Server.PublicURL
	if target == "" {
		scheme := "ws"
		if r.TLS != nil {
			scheme = "wss"
		}
		target = scheme + "://" + r.Host + "/"
	}
	size := queryInt(r, "size", 256, 64, 1024)

	png, err := qrcode.Encode(target, qrcode.Medium, size)
	if err != nil {
		s.log.Error("qr encode", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "qr encode failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func (s *Server) handleKills(w http.ResponseWriter, r *http.Request) {
	kills, err := s.db.RecentKills(s.matchID, queryInt(r, "limit", defaultListLen, 1, maxListLen))
	if err != nil {
		s.log.Error("recent kills", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, kills)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.db.TopSessions(s.matchID, queryInt(r, "limit", defaultListLen, 1, maxListLen))
	if err != nil {
		s.log.Error("top sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, exp, err := s.auth.Login(req.Username, req.Password, clientIP(r))
	switch {
	case errors.Is(err, ErrAdminDisabled):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrLoginRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		s.log.Warn("admin login failed", zap.String("ip", clientIP(r)))
		writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		s.log.Error("admin login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp})
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	b, err := snapshot.Encode(s.engine.Snapshot())
	if err != nil {
		s.log.Error("snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.Write(b)
}

func (s *Server) handleArena(w http.ResponseWriter, r *http.Request) {
	size := queryInt(r, "size", render.DefaultSize, 64, render.MaxSize)
	var buf bytes.Buffer
	if err := render.WritePNG(&buf, s.engine.Snapshot(), size); err != nil {
		s.log.Error("render arena", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

type announceRequest struct {
	Message string `json:"message"`
}

// handleAnnounce shows a custom overlay to every player
func (s *Server) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	var req announceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg := sanitizeOverlay(req.Message)
	if msg == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	s.engine.Broadcast(codec.CustomOverlay(msg))
	s.log.Info("announcement sent", zap.String("message", msg))
	w.WriteHeader(http.StatusNoContent)
}

// sanitizeOverlay drops the wire separators and caps the length
func sanitizeOverlay(msg string) string {
	msg = strings.Map(func(r rune) rune {
		if r == ',' || r == '|' || r < ' ' {
			return -1
		}
		return r
	}, msg)
	msg = strings.TrimSpace(msg)
	if runes := []rune(msg); len(runes) > maxAnnounceLen {
		msg = string(runes[:maxAnnounceLen])
	}
	return msg
}

func queryInt(r *http.Request, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return min(max(v, lo), hi)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
