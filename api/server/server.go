// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package server is the runtime's HTTP front door: peers join sessions over
// websocket, and health and metrics are exposed alongside.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/luxfi/worldsync/session"
)

const baseURL = "/ext"

var _ Server = (*server)(nil)

// Server maintains the HTTP router.
type Server interface {
	// Dispatch starts the API server
	Dispatch() error
	// Shutdown this server
	Shutdown() error
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `json:"readTimeout"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout"`
	WriteTimeout      time.Duration `json:"writeHeaderTimeout"`
	IdleTimeout       time.Duration `json:"idleTimeout"`
}

type Config struct {
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	HTTP            HTTPConfig
}

type server struct {
	// log this server writes to
	log log.Logger

	shutdownTimeout time.Duration

	metrics  *serverMetrics
	sessions *session.Manager
	registry metric.Registry

	srv *http.Server

	// Listener used to serve traffic
	listener net.Listener
}

// New returns an instance of a Server.
func New(
	logger log.Logger,
	listener net.Listener,
	sessions *session.Manager,
	registry metric.Registry,
	gatherer prometheus.Gatherer,
	config Config,
) (Server, error) {
	m, err := newMetrics(registry)
	if err != nil {
		return nil, err
	}

	s := &server{
		log:             logger,
		shutdownTimeout: config.ShutdownTimeout,
		metrics:         m,
		sessions:        sessions,
		registry:        registry,
		listener:        listener,
	}

	router := mux.NewRouter()
	router.HandleFunc(baseURL+"/health", s.handleHealth).Methods(http.MethodGet)
	if gatherer != nil {
		router.Handle(baseURL+"/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	router.HandleFunc(baseURL+"/join/{session}", s.handleJoin)

	handler := m.wrapHandler(router)
	handler = cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowCredentials: true,
	}).Handler(handler)

	s.srv = &http.Server{
		Handler:           handler,
		ReadTimeout:       config.HTTP.ReadTimeout,
		ReadHeaderTimeout: config.HTTP.ReadHeaderTimeout,
		WriteTimeout:      config.HTTP.WriteTimeout,
		IdleTimeout:       config.HTTP.IdleTimeout,
	}

	logger.Info("API created with allowed origins: " + strings.Join(config.AllowedOrigins, ","))
	return s, nil
}

func (s *server) Dispatch() error {
	return s.srv.Serve(s.listener)
}

func (s *server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	err := s.srv.Shutdown(ctx)
	cancel()

	// If shutdown times out, make sure the server is still shutdown.
	_ = s.srv.Close()
	return err
}

type healthReply struct {
	Healthy  bool            `json:"healthy"`
	Sessions []sessionHealth `json:"sessions"`
}

type sessionHealth struct {
	SessionID string `json:"sessionId"`
	Clients   int    `json:"clients"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	reply := healthReply{Healthy: true}
	for _, sess := range s.sessions.Sessions() {
		reply.Sessions = append(reply.Sessions, sessionHealth{
			SessionID: sess.ID().String(),
			Clients:   len(sess.Clients()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		s.log.Debug("failed to write health reply", log.Err(err))
	}
}
