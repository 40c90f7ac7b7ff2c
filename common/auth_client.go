package common

import (
	"context"

	"golang.org/x/oauth2"
)

// AuthClient defines the ability to refresh an OAuth2-style token pair.
// The gateway satisfies it by calling the API's refresh endpoint; tests and
// callers with a different refresh flow can supply their own.
type AuthClient interface {
	// RefreshToken exchanges the given refresh token for a new token pair.
	// Returns a new *oauth2.Token on success, or an error if refresh fails.
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}
