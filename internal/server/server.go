// Package server exposes box extraction and document assembly over HTTP and
// WebSocket.
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/docweave/internal/assembler"
	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/detector"
)

// Config holds server settings.
type Config struct {
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Detector    detector.Config
	Assembler   assembler.Config
	Batch       batch.Options
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	detCfg     detector.Config
	extractor  *detector.Extractor
	asm        *assembler.Assembler
	opts       batch.Options
	corsOrigin string
	maxUpload  int64
	timeout    time.Duration
}

// NewServer validates the configuration and creates a server.
func NewServer(cfg Config) (*Server, error) {
	ext, err := detector.NewExtractor(cfg.Detector)
	if err != nil {
		return nil, err
	}
	asm, err := assembler.New(cfg.Assembler)
	if err != nil {
		return nil, err
	}
	s := &Server{
		detCfg:     cfg.Detector,
		extractor:  ext,
		asm:        asm.WithBatchOptions(cfg.Batch),
		opts:       cfg.Batch,
		corsOrigin: cfg.CORSOrigin,
		maxUpload:  max(cfg.MaxUploadMB, 1) << 20,
		timeout:    time.Duration(max(cfg.TimeoutSec, 1)) * time.Second,
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	return s, nil
}

// SetupRoutes registers every endpoint on mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", requestIDMiddleware(s.corsMiddleware("/health", s.healthHandler)))
	mux.HandleFunc("/v1/extract", requestIDMiddleware(s.corsMiddleware("/v1/extract", s.extractHandler)))
	mux.HandleFunc("/v1/assemble", requestIDMiddleware(s.corsMiddleware("/v1/assemble", s.assembleHandler)))
	mux.HandleFunc("/v1/stream", requestIDMiddleware(s.corsMiddleware("/v1/stream", s.streamHandler)))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with every endpoint registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
