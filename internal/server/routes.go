package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/connection"
	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/settings"
	"github.com/muurk/musikremote/internal/streamproxy"
)

// connectTimeout bounds POST /control/connect
const connectTimeout = 15 * time.Second

// Status is the body of GET /status
type Status struct {
	Server        string             `json:"server"`
	Proxy         streamproxy.Status `json:"proxy"`
	Connection    connection.Status  `json:"connection"`
	Volume        float64            `json:"volume"`
	VolumeChanges int                `json:"volume_changes"`
}

// VolumeRequest is the body of POST /control/volume
type VolumeRequest struct {
	Level float64 `json:"level"`
}

// ErrorResponse is returned with every non-2xx control response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler returns the daemon's HTTP routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Get("/status", s.handleStatus)

	r.Route("/control", func(r chi.Router) {
		r.Post("/reload", s.handleReload)
		r.Post("/disconnect", s.handleDisconnect)
		r.Post("/connect", s.handleConnect)
		r.Post("/volume", s.handleVolume)
	})

	r.Handle("/audio/*", s.proxy)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) status() Status {
	return Status{
		Server:        settings.Summary(s.load()),
		Proxy:         s.proxy.Status(),
		Connection:    s.conn.Status(),
		Volume:        s.mixer.Volume(),
		VolumeChanges: s.mixer.Changes(),
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.refreshStore()
	err := s.proxy.Reload()
	logging.LogNotification(settings.CollaboratorProxy, "reload", err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.refreshStore()
	err := s.conn.Disconnect()
	logging.LogNotification(settings.CollaboratorConnection, "disconnect", err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), connectTimeout)
	defer cancel()

	if _, err := s.conn.Conn(ctx); err != nil {
		status := http.StatusBadGateway
		if connection.IsAuthError(err) {
			status = http.StatusUnauthorized
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err := s.mixer.SetVolume(req.Level)
	logging.LogNotification(settings.CollaboratorVolume, "set_volume", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// requestLogger logs each request at debug level
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}
