// ABOUTME: Contact directory client for the marketplace REST backend
// ABOUTME: Loads the chattable counterparts for a viewer, with a local credential check

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/couponly/chatcore/internal/chat"
)

// AuthError indicates the credentials are absent or expired. The directory
// load halts and is not retried automatically; the caller may re-invoke Load
// after a credential change.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "directory auth: " + e.Reason
}

// NetworkError indicates a transport failure or an unexpected status from the
// directory endpoint. Non-fatal: callers log it and degrade to an empty
// directory.
type NetworkError struct {
	Status int // zero when the request never completed
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory request: %v", e.Err)
	}
	return fmt.Sprintf("directory request: unexpected status %d", e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Directory fetches the list of entities the viewer is allowed to chat with.
type Directory struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates a directory client. Pass nil httpClient or logger for defaults.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Directory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		baseURL: baseURL,
		client:  httpClient,
		logger:  logger.With("component", "directory"),
	}
}

// Load fetches GET /chat/contacts with the given bearer token. The token is
// inspected locally first: a missing or expired token fails with *AuthError
// without a network round-trip. Any transport failure or non-200 status
// becomes a *NetworkError.
func (d *Directory) Load(ctx context.Context, token string) ([]chat.Contact, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/chat/contacts", nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Any non-200 is "directory unavailable"; the 401 case that slips
		// past the local check is still a backend-side concern, not ours.
		return nil, &NetworkError{Status: resp.StatusCode}
	}

	var contacts []chat.Contact
	if err := json.NewDecoder(resp.Body).Decode(&contacts); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decoding contacts: %w", err)}
	}

	d.logger.Debug("contacts loaded", "count", len(contacts))
	return contacts, nil
}

// checkToken rejects absent or expired credentials before any request is
// made. The signature is not verified here; the backend owns verification,
// this is only the fast local expiry check.
func checkToken(token string) error {
	if token == "" {
		return &AuthError{Reason: "missing credentials"}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return &AuthError{Reason: "malformed credentials"}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return &AuthError{Reason: "malformed expiry claim"}
	}
	if exp != nil && exp.Before(time.Now()) {
		return &AuthError{Reason: "credentials expired"}
	}
	return nil
}
