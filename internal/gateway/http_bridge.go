package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/statewallet/wallet-session/internal/gateway/auth"
	"github.com/statewallet/wallet-session/internal/utils"
)

const (
	invokePath         = "invoke"
	RequestIDHeader    = "X-Request-ID"
	defaultHTTPTimeout = 30 * time.Second
	signatureTimeout   = 5 * time.Second
	maxErrorBodyBytes  = 64 * 1024
)

// HTTPBridge invokes host commands with a JSON POST to <base>/invoke/<command>.
type HTTPBridge struct {
	httpClient    utils.HTTPClient
	baseURL       string
	requestSigner auth.HTTPRequestSigner
}

var _ Bridge = (*HTTPBridge)(nil)

// NewHTTPBridge creates an HTTP bridge. requestSigner may be nil when the host does not
// authenticate requests.
func NewHTTPBridge(baseURL string, requestSigner auth.HTTPRequestSigner, httpClient utils.HTTPClient) (*HTTPBridge, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parsing bridge URL %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPBridge{
		httpClient:    httpClient,
		baseURL:       baseURL,
		requestSigner: requestSigner,
	}, nil
}

func (b *HTTPBridge) Invoke(ctx context.Context, command string, args map[string]any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshalling request body: %w", err)
	}

	u, err := url.JoinPath(b.baseURL, invokePath, command)
	if err != nil {
		return nil, fmt.Errorf("joining path: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(RequestIDHeader, uuid.NewString())

	if b.requestSigner != nil {
		if err = b.requestSigner.SignHTTPRequest(request, signatureTimeout); err != nil {
			return nil, fmt.Errorf("signing request: %w", err)
		}
	}

	resp, err := b.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer utils.DeferredClose(ctx, resp.Body, "closing response body")

	if resp.StatusCode >= 400 {
		return nil, parseHostError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(respBody) {
		return nil, errors.New("response body is not valid JSON")
	}
	return json.RawMessage(respBody), nil
}

func parseHostError(resp *http.Response) error {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response body to parse error when statusCode=%d: %w", resp.StatusCode, err)
	}

	hostErr := &HostError{}
	if err = json.Unmarshal(respBody, hostErr); err != nil || hostErr.Message == "" {
		hostErr = &HostError{Message: fmt.Sprintf("unexpected statusCode=%d, body=%s", resp.StatusCode, respBody)}
	}
	if hostErr.Code == "" && resp.StatusCode == http.StatusConflict {
		hostErr.Code = HostErrorCodeConflict
	}
	return hostErr
}
