package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// checkRequest is the body of POST /api/v1/proxy/check.
type checkRequest struct {
	Proxy   string `json:"proxy"`
	Timeout int    `json:"timeout"` // seconds; 0 means the configured default
}

// batchRequest is the body of POST /api/v1/proxy/check-batch.
type batchRequest struct {
	Proxies       []string `json:"proxies"`
	Timeout       int      `json:"timeout"`
	MaxConcurrent int      `json:"max_concurrent"`
}

type healthResponse struct {
	Status  string `json:"status"`
	AppName string `json:"app_name"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:  "healthy",
		AppName: s.cfg.AppName,
		Version: s.cfg.Version,
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.badRequest(w, r, "invalid JSON body")
		return
	}
	if req.Proxy == "" {
		s.badRequest(w, r, "proxy must not be empty")
		return
	}
	timeout, err := s.resolveTimeout(req.Timeout)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	outcome := s.engine.CheckSingle(r.Context(), req.Proxy, timeout)
	render.JSON(w, r, outcome)
}

func (s *Server) handleCheckBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.badRequest(w, r, "invalid JSON body")
		return
	}
	if len(req.Proxies) == 0 {
		s.badRequest(w, r, "proxies must not be empty")
		return
	}
	if len(req.Proxies) > s.cfg.MaxBatchSize {
		s.badRequest(w, r, fmt.Sprintf("too many proxies: %d (max %d)", len(req.Proxies), s.cfg.MaxBatchSize))
		return
	}
	timeout, err := s.resolveTimeout(req.Timeout)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	maxConcurrent, err := s.resolveMaxConcurrent(req.MaxConcurrent)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	report := s.engine.CheckBatch(r.Context(), req.Proxies, timeout, maxConcurrent)
	render.JSON(w, r, report)
}

func (s *Server) resolveTimeout(seconds int) (time.Duration, error) {
	if seconds == 0 {
		seconds = s.cfg.DefaultTimeoutSec
	}
	if seconds < s.cfg.MinTimeoutSec || seconds > s.cfg.MaxTimeoutSec {
		return 0, fmt.Errorf("timeout must be between %d and %d seconds", s.cfg.MinTimeoutSec, s.cfg.MaxTimeoutSec)
	}
	return time.Duration(seconds) * time.Second, nil
}

func (s *Server) resolveMaxConcurrent(n int) (int, error) {
	if n == 0 {
		n = s.cfg.DefaultMaxConcurrent
	}
	if n < 1 || n > s.cfg.MaxConcurrentCap {
		return 0, fmt.Errorf("max_concurrent must be between 1 and %d", s.cfg.MaxConcurrentCap)
	}
	return n, nil
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{Error: msg})
}
