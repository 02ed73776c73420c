package server

import "github.com/dekarrin/voxgraph/internal/recognize"

// ErrorResponse is the JSON body returned for any error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// RecognizeRequest is the body of POST /recognize.
type RecognizeRequest struct {
	Text  string `json:"text"`
	Fuzzy bool   `json:"fuzzy"`
}

// RecognizeResponse is the body returned by POST /recognize.
type RecognizeResponse struct {
	RequestID string                  `json:"request_id"`
	Results   []recognize.Recognition `json:"results"`
}

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful POST /admin/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// ReloadRequest is the body of POST /admin/reload.
type ReloadRequest struct {
	Grammar string `json:"grammar"`
}

// HealthResponse is the body returned by GET /healthz.
type HealthResponse struct {
	Status  string   `json:"status"`
	Intents []string `json:"intents"`
}
