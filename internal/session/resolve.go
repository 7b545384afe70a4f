package session

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// CookieName is the session cookie emitted after a successful resolve.
const CookieName = "sessionId"

// HeaderName carries the session ID when cookies are unavailable.
const HeaderName = "x-session-id"

// Credentials are the raw identity hints pulled off one request.
type Credentials struct {
	SessionID string
	Token     string
	Region    string
}

// CredentialsFromRequest extracts the candidate session ID and bearer
// token from a request. Priority: cookie > header > query for the
// session ID; Authorization header > body field > query for the token.
// The request body, when JSON, is peeked and restored so the handler can
// still decode it.
func CredentialsFromRequest(r *http.Request) Credentials {
	var c Credentials

	if ck, err := r.Cookie(CookieName); err == nil {
		c.SessionID = ck.Value
	}
	if c.SessionID == "" {
		c.SessionID = strings.TrimSpace(r.Header.Get(HeaderName))
	}
	if c.SessionID == "" {
		c.SessionID = strings.TrimSpace(r.URL.Query().Get("sessionId"))
	}

	body := peekBody(r)

	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		c.Token = CleanToken(auth)
	}
	if c.Token == "" {
		c.Token = CleanToken(body.Token)
	}
	if c.Token == "" {
		c.Token = CleanToken(r.URL.Query().Get("token"))
	}

	c.Region = strings.TrimSpace(r.URL.Query().Get("region"))
	if c.Region == "" {
		c.Region = strings.TrimSpace(body.Region)
	}

	return c
}

type bodyCredentials struct {
	Token  string `json:"token"`
	Region string `json:"region"`
}

// peekBody reads a JSON request body for its token/region fields and puts
// the bytes back so downstream decoding still works. Anything that is not
// small JSON is left untouched.
func peekBody(r *http.Request) bodyCredentials {
	var out bodyCredentials
	if r.Body == nil || r.Method == http.MethodGet {
		return out
	}
	ct := r.Header.Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		return out
	}
	const maxPeek = 4 << 20
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeek))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
