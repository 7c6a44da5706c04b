// Package session stores the org credentials the CLI talks to.
//
// A session holds an instance URL, an access token and the identity the
// token belongs to. Tokens are supplied by the user (for example from
// `sf org display`); no OAuth flow runs here.
//
// # Usage
//
//	store, err := session.NewCLIStore()
//	if err != nil {
//	    return err
//	}
//
//	sess, err := session.New(instanceURL, token, identity, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	err = store.SaveSession(ctx, sess)
//
//	sess, err = store.GetSession(ctx)
//	if sess == nil {
//	    // not logged in, or the session expired
//	}
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/matzehuels/schemagraph/pkg/integrations/salesforce"
)

// Session stores org credentials.
type Session struct {
	ID          string               `json:"id"`
	InstanceURL string               `json:"instance_url"`
	AccessToken string               `json:"access_token"`
	APIVersion  string               `json:"api_version,omitempty"`
	Identity    *salesforce.Identity `json:"identity,omitempty"`
	ExpiresAt   time.Time            `json:"expires_at"`
	CreatedAt   time.Time            `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// UserID returns a storage-compatible user identifier.
// Format: "salesforce:{org}:{user}".
func (s *Session) UserID() string {
	if s == nil || s.Identity == nil {
		return ""
	}
	return "salesforce:" + s.Identity.OrganizationID + ":" + s.Identity.UserID
}

// Username returns the identity's username, or "" if unknown.
func (s *Session) Username() string {
	if s == nil || s.Identity == nil {
		return ""
	}
	return s.Identity.Username
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// DefaultTTL is the default session duration. Org access tokens usually
// expire sooner; a 401 from the org is reported as SESSION_EXPIRED.
const DefaultTTL = 12 * time.Hour

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// New creates a new session for an org.
func New(instanceURL, accessToken string, identity *salesforce.Identity, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:          id,
		InstanceURL: instanceURL,
		AccessToken: accessToken,
		Identity:    identity,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}, nil
}
