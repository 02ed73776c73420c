// Package middle contains HTTP middleware shared by the recognition server's
// handlers: panic recovery and request-ID tagging. Auth is handled directly
// in server/token.go since the admin surface is a single bearer check, not a
// lookup against a user directory.
package middle

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
)

// Middleware is a function that takes a handler and returns a new handler
// which wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

type mwFunc http.HandlerFunc

func (sf mwFunc) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	sf(w, req)
}

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDMiddleware generates a fresh google/uuid for every request and
// attaches it to the request's context and to an X-Request-Id response
// header, so server-side logs and client-visible errors can be correlated.
func RequestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-Id", id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the request ID attached by RequestIDMiddleware, or
// "-" if none is present (e.g. in a test that doesn't run the middleware).
func RequestID(ctx context.Context) string {
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok || id == "" {
		return "-"
	}
	return id
}

// DontPanic returns a Middleware that recovers from a panic in the wrapped
// handler and writes a generic HTTP-500 instead of crashing the server.
func DontPanic() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, r *http.Request) {
			defer panicTo500(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		msg := fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack()))
		http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
		fmt.Println(msg)
		return true
	}
	return false
}
