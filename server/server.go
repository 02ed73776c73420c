// Package server is an HTTP front end over a voxgraph.Engine: a public
// POST /recognize and GET /healthz, and an admin surface (POST /admin/login,
// POST /admin/reload, GET /admin/graph) gated behind a bearer token minted
// from one configured password. Routing is chi-based, wrapped in an
// Endpoint/EndpointResult pair that separates handler logic from response
// writing, with bcrypt + JWT admin auth and no user directory to store —
// there is exactly one admin credential to check.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dekarrin/voxgraph"
	"github.com/dekarrin/voxgraph/internal/recognize"
	"github.com/dekarrin/voxgraph/server/middle"
)

// EndpointFunc handles one request and returns the EndpointResult to write
// back, separating routing from response construction.
type EndpointFunc func(req *http.Request) EndpointResult

// Endpoint adapts an EndpointFunc into an http.HandlerFunc, recovering from
// panics and slowing down error responses to deprioritize abusive clients.
func (s *Server) Endpoint(ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		result := ep(req)

		if result.status == http.StatusUnauthorized || result.status == http.StatusForbidden || result.status == http.StatusInternalServerError {
			time.Sleep(s.unauthDelay)
		}

		result.writeResponse(w, req)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) {
	if p := recover(); p != nil {
		res := jsonInternalServerError("panic: %v", p)
		res.writeResponse(w, req)
	}
}

// Server wraps a voxgraph.Engine behind an HTTP API. The engine pointer is
// protected by a mutex so an admin reload can swap it out while recognition
// requests are in flight.
type Server struct {
	router http.Handler

	mu     sync.RWMutex
	engine *voxgraph.Engine

	secret            []byte
	adminPasswordHash []byte
	unauthDelay       time.Duration
	engineOptions     voxgraph.Options
}

// New builds a Server around an already-loaded Engine. engineOptions is
// reused verbatim on every admin reload, so it must be the same Options the
// caller used to produce engine (slot resolution included) or a reloaded
// grammar referencing those slots will fail to compile.
func New(engine *voxgraph.Engine, cfg Config, engineOptions voxgraph.Options) (*Server, error) {
	s := &Server{
		engine:            engine,
		secret:            cfg.TokenSecret,
		adminPasswordHash: []byte(cfg.AdminPasswordHash),
		unauthDelay:       cfg.UnauthDelay(),
		engineOptions:     engineOptions,
	}

	r := chi.NewRouter()
	r.Use(middle.RequestIDMiddleware())
	r.Use(middle.DontPanic())

	r.Get("/healthz", s.Endpoint(s.epHealthz))
	r.Post("/recognize", s.Endpoint(s.epRecognize))
	r.Post("/admin/login", s.Endpoint(s.epAdminLogin))
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/admin/reload", s.Endpoint(s.epAdminReload))
		r.Get("/admin/graph", s.Endpoint(s.epAdminGraph))
	})

	s.router = r
	return s, nil
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

func (cfg Config) UnauthDelay() time.Duration {
	if cfg.UnauthDelayMillis < 1 {
		return 0
	}
	return time.Duration(cfg.UnauthDelayMillis) * time.Millisecond
}

func (s *Server) currentEngine() *voxgraph.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *Server) epHealthz(req *http.Request) EndpointResult {
	e := s.currentEngine()
	return jsonOK(HealthResponse{Status: "ok", Intents: e.Intents()})
}

func (s *Server) epRecognize(req *http.Request) EndpointResult {
	var body RecognizeRequest
	if err := parseJSON(req, &body); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if strings.TrimSpace(body.Text) == "" {
		return jsonBadRequest("text: property is empty or missing from request", "empty text")
	}

	e := s.currentEngine()
	results, err := e.Recognize(body.Text, recognize.Options{Fuzzy: body.Fuzzy})
	if err != nil {
		return jsonInternalServerError("recognize: %s", err.Error())
	}

	return jsonOK(RecognizeResponse{
		RequestID: middle.RequestID(req.Context()),
		Results:   results,
	}, "recognized %d candidate(s) for %d-char input", len(results), len(body.Text))
}

func (s *Server) epAdminLogin(req *http.Request) EndpointResult {
	var body LoginRequest
	if err := parseJSON(req, &body); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}

	err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(body.Password))
	if err != nil {
		return jsonUnauthorized("incorrect password", "admin login attempt: %s", err.Error())
	}

	tok, err := generateAdminJWT(s.secret)
	if err != nil {
		return jsonInternalServerError("generate admin JWT: %s", err.Error())
	}

	return jsonOK(LoginResponse{Token: tok}, "admin logged in")
}

func (s *Server) epAdminReload(req *http.Request) EndpointResult {
	var body ReloadRequest
	if err := parseJSON(req, &body); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if strings.TrimSpace(body.Grammar) == "" {
		return jsonBadRequest("grammar: property is empty or missing from request", "empty grammar")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.engine.Reload(strings.NewReader(body.Grammar), s.engineOptions)
	if err != nil {
		return jsonBadRequest("grammar could not be compiled: "+err.Error(), "reload failed: %s", err.Error())
	}

	return jsonOK(HealthResponse{Status: "reloaded", Intents: s.engine.Intents()}, "grammar reloaded")
}

func (s *Server) epAdminGraph(req *http.Request) EndpointResult {
	e := s.currentEngine()
	data, err := e.ToJSON()
	if err != nil {
		return jsonInternalServerError("export graph: %s", err.Error())
	}

	var raw json.RawMessage = data
	return jsonOK(raw, "graph exported")
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req.Header.Get("Authorization"))
		if err != nil {
			time.Sleep(s.unauthDelay)
			jsonUnauthorized("", err.Error()).writeResponse(w, req)
			return
		}

		if err := validateAdminJWT(tok, s.secret); err != nil {
			time.Sleep(s.unauthDelay)
			jsonUnauthorized("", err.Error()).writeResponse(w, req)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// v must be a pointer to a type.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}

	if err := json.Unmarshal(bodyData, v); err != nil {
		return fmt.Errorf("malformed JSON in request")
	}
	return nil
}
