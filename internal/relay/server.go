package relay

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"poser-sync/internal/metrics"
	"poser-sync/internal/wire"
)

const maxDecodeErrorsPerConn = 5

// Server is the relay standing in for the instant-message service: it
// forwards text payloads between characters and broadcasts presence.
type Server struct {
	hub *Hub
	log zerolog.Logger
}

// NewServer creates a relay with no connections.
func NewServer(log zerolog.Logger) *Server {
	return &Server{hub: newHub(), log: log}
}

// Hub exposes the connection registry.
func (s *Server) Hub() *Hub { return s.hub }

// Router builds the HTTP routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestMetrics)
	r.Use(requestLogger(s.log))
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.health)
	r.Get("/ws", s.serveWS)
	return r
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Timestamp   string `json:"timestamp"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:      "healthy",
		Connections: len(s.hub.Connected()),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil || id == uuid.Nil {
		http.Error(w, "id query parameter must be a character uuid", http.StatusBadRequest)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		s.handleConn(conn, id)
	}).ServeHTTP(w, r)
}

func (s *Server) handleConn(conn *websocket.Conn, id uuid.UUID) {
	defer func() {
		_ = conn.Close()
	}()

	p := &peer{encoder: json.NewEncoder(conn)}
	s.hub.join(id, p)
	defer s.hub.leave(id, p)
	s.log.Info().Str("character", id.String()).Msg("connected")

	decoder := json.NewDecoder(conn)
	decodeErrors := 0
	for {
		var f Frame
		if err := decoder.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info().Str("character", id.String()).Msg("disconnected")
				return
			}
			decodeErrors++
			metrics.RelayMessages.WithLabelValues("invalid").Inc()
			_ = p.writeFrame(Frame{Type: FrameError, Error: "invalid frame"})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if f.Type != FrameMessage || len(f.Payload) > wire.MaxInboundLen {
			metrics.RelayMessages.WithLabelValues("invalid").Inc()
			_ = p.writeFrame(Frame{Type: FrameError, Error: "unsupported frame"})
			continue
		}
		if err := s.hub.route(id, f); err != nil {
			s.log.Debug().Err(err).Str("from", id.String()).Str("to", f.To.String()).Msg("not delivered")
			_ = p.writeFrame(Frame{Type: FrameError, To: f.To, Error: err.Error()})
		}
	}
}

// requestMetrics records Prometheus metrics per request.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// requestLogger logs each completed request.
func requestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("request_id", chimw.GetReqID(r.Context())).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
