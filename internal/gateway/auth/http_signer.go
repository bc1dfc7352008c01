package auth

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPRequestSigner is responsible for signing HTTP requests using JWTs.
type HTTPRequestSigner interface {
	SignHTTPRequest(req *http.Request, timeout time.Duration) error
}

// JWTHTTPSigner attaches a request-bound bearer token to outgoing bridge calls.
type JWTHTTPSigner struct {
	generator JWTTokenGenerator
}

var _ HTTPRequestSigner = (*JWTHTTPSigner)(nil)

// SignHTTPRequest signs an HTTP request with a JWT.
func (s *JWTHTTPSigner) SignHTTPRequest(req *http.Request, timeout time.Duration) error {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		if bodyBytes, err = io.ReadAll(req.Body); err != nil {
			return fmt.Errorf("reading request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	methodAndPath := fmt.Sprintf("%s %s", req.Method, req.URL.Path)
	jwtToken, err := s.generator.GenerateJWT(methodAndPath, bodyBytes, time.Now().Add(timeout))
	if err != nil {
		return fmt.Errorf("generating JWT token: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", jwtToken))

	return nil
}

// NewHTTPRequestSigner creates a new HTTPRequestSigner with the given JWTTokenGenerator.
func NewHTTPRequestSigner(generator JWTTokenGenerator) HTTPRequestSigner {
	return &JWTHTTPSigner{
		generator: generator,
	}
}
