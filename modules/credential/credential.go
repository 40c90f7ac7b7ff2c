package credential

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned by a Backend that holds no credential.
var ErrNotFound = errors.New("credential not found")

// Credential is the access/refresh token pair plus its optional expiry.
// A zero Expiry means no expiry was recorded.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// ExpiredAt reports whether the credential is expired at instant now. Expiry is
// advisory; the server's 401 is the real enforcement point.
func (c *Credential) ExpiredAt(now time.Time) bool {
	if c == nil || c.Expiry.IsZero() {
		return false
	}
	return now.After(c.Expiry)
}

// Token returns the credential as an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	if c == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.Expiry,
	}
}

// Backend persists a single credential. Implementations must be safe for
// concurrent use.
type Backend interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
	Delete(ctx context.Context) error
}
