package authentication

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
)

// Modes for authenticating cftpd to the external API
const (
	HTTPAPIAuthNone   = httpclient.AuthModeNone
	HTTPAPIAuthSimple = "simple" // shared secret in AuthHeader
	HTTPAPIAuthHMAC   = "hmac"   // request signed with AuthSecret
)

// DefaultHTTPAPITimeout bounds a single call to the external API
const DefaultHTTPAPITimeout = 10 * time.Second

// HTTPAPIConfig configures an HTTPAPIProvider
type HTTPAPIConfig struct {
	URL                string
	Timeout            time.Duration
	AuthMode           string // none, simple or hmac; simple when only AuthSecret is set
	AuthHeader         string // Header carrying AuthSecret in simple mode
	AuthSecret         string
	InsecureSkipVerify bool
}

// HTTPAPIProvider verifies credentials by POSTing them to an external HTTP API
type HTTPAPIProvider struct {
	config HTTPAPIConfig
	client *http.Client
}

// APIAuthRequest is the request payload sent to the external API
type APIAuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIAuthResponse is the expected response from the external API
type APIAuthResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewHTTPAPIProvider validates cfg and creates the provider
func NewHTTPAPIProvider(cfg HTTPAPIConfig) (*HTTPAPIProvider, error) {
	if cfg.URL == "" {
		return nil, errors.New("http api url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid http api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid http api url %q: scheme must be http or https", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPAPITimeout
	}
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	if cfg.AuthMode == "" {
		cfg.AuthMode = HTTPAPIAuthNone
		if cfg.AuthSecret != "" {
			cfg.AuthMode = HTTPAPIAuthSimple
		}
	}
	switch cfg.AuthMode {
	case HTTPAPIAuthNone:
	case HTTPAPIAuthSimple, HTTPAPIAuthHMAC:
		if cfg.AuthSecret == "" {
			return nil, fmt.Errorf("http api auth mode %s requires a secret", cfg.AuthMode)
		}
	default:
		return nil, fmt.Errorf("unknown http api auth mode %q", cfg.AuthMode)
	}

	// Authentication headers are added to every request by the client
	var client *http.Client
	if cfg.AuthMode == HTTPAPIAuthSimple {
		if cfg.AuthHeader == "" {
			cfg.AuthHeader = "Authorization"
		}
		client, err = httpclient.NewAuthClient(cfg.AuthMode, cfg.AuthSecret,
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
			httpclient.WithHeaderName(cfg.AuthHeader),
		)
	} else {
		client, err = httpclient.NewAuthClient(cfg.AuthMode, cfg.AuthSecret,
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("creating http api client: %w", err)
	}

	return &HTTPAPIProvider{config: cfg, client: client}, nil
}

// Authenticate implements Provider
func (p *HTTPAPIProvider) Authenticate(user, password string) error {
	body, err := json.Marshal(APIAuthRequest{Username: user, Password: password})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(body))
	if err != nil {
		return Reject(user, "authentication backend unavailable", fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Reject(user, "authentication backend unavailable", fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
	}
	defer resp.Body.Close()

	// Limit body to avoid unbounded reads from a misbehaving API
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Reject(user, "invalid response from authentication backend", fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
	}

	var authResp APIAuthResponse
	decodeErr := json.Unmarshal(data, &authResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := fmt.Sprintf("authentication backend returned HTTP %d", resp.StatusCode)
		if decodeErr == nil && authResp.Message != "" {
			reason = authResp.Message
		}
		// 5xx is an outage whatever the body says
		if resp.StatusCode >= 500 {
			return Reject(user, reason, ErrBackendUnavailable)
		}
		return Reject(user, reason, ErrInvalidCredentials)
	}
	if decodeErr != nil {
		return Reject(user, "invalid response from authentication backend", fmt.Errorf("%w: %v", ErrBackendUnavailable, decodeErr))
	}
	if !authResp.Success {
		reason := authResp.Message
		if reason == "" {
			reason = ErrInvalidCredentials.Error()
		}
		return Reject(user, reason, ErrInvalidCredentials)
	}
	return nil
}
