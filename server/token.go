package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// adminSubject is the fixed JWT subject for the single admin account this
// server recognizes. There is no multi-user concept here: the admin surface
// (reload, graph export) is one password behind one bearer token, not a user
// directory.
const adminSubject = "admin"

// generateAdminJWT mints a bearer token for the admin, signed with secret.
func generateAdminJWT(secret []byte) (string, error) {
	claims := &jwt.MapClaims{
		"iss": "voxgraph",
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": adminSubject,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(secret)
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

// validateAdminJWT parses and verifies tok was signed with secret for the
// admin subject.
func validateAdminJWT(tok string, secret []byte) error {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer("voxgraph"), jwt.WithLeeway(time.Minute))
	if err != nil {
		return err
	}

	subj, err := parsed.Claims.GetSubject()
	if err != nil {
		return fmt.Errorf("cannot get subject: %w", err)
	}
	if subj != adminSubject {
		return fmt.Errorf("unrecognized subject %q", subj)
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(parts[0]))
	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return strings.TrimSpace(parts[1]), nil
}
