package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidToken is returned when the platform rejects a bearer token.
var ErrInvalidToken = errors.New("session: invalid token")

// Validator decides whether a bearer token is acceptable for the given
// region. Implementations are pluggable so the upstream check can be
// swapped out in tests and local setups.
type Validator interface {
	Validate(ctx context.Context, token, region string) error
}

// AcceptAll approves every non-empty token without contacting the
// platform. For local development only; never wire it in production.
type AcceptAll struct{}

func (AcceptAll) Validate(_ context.Context, token, _ string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	return nil
}

// UpstreamValidator checks a token with a lightweight platform call.
// A network failure is treated as valid to avoid locking users out when
// the platform is briefly unreachable; only an explicit 401/403 rejects.
type UpstreamValidator struct {
	http    *http.Client
	baseURL func(region string) string
}

// NewUpstreamValidator builds a validator with a short timeout. baseURL
// may be nil, in which case the public platform endpoint is derived from
// the region.
func NewUpstreamValidator(baseURL func(region string) string) *UpstreamValidator {
	if baseURL == nil {
		baseURL = func(region string) string {
			return "https://api." + region
		}
	}
	return &UpstreamValidator{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
	}
}

func (v *UpstreamValidator) Validate(ctx context.Context, token, region string) error {
	token = CleanToken(token)
	if token == "" {
		return ErrInvalidToken
	}

	u := v.baseURL(region) + "/api/v2/authorization/permissions?" + url.Values{"pageSize": {"1"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("session: build validation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		log.Printf("[Session] validation network error, assuming token valid: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrInvalidToken
	}
	return nil
}
