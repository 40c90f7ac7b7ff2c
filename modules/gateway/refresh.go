package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
)

const refreshFlightKey = "refresh"

// refresh joins the in-flight refresh or starts one. used is the access token
// that was rejected; a flight that finds a different token already stored
// returns it without calling the refresh endpoint. The exchange itself is
// detached from ctx so one caller giving up does not fail the others; ctx only
// bounds how long this caller waits.
func (c *Client) refresh(ctx context.Context, used string) (string, error) {
	ch := c.flight.DoChan(refreshFlightKey, func() (interface{}, error) {
		if current, ok := c.store.AccessToken(ctx); ok && current != used {
			return current, nil
		}
		return c.runRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &common.TransportError{Err: ctx.Err()}
	}
}

func (c *Client) runRefresh(ctx context.Context) (string, error) {
	refreshToken, ok := c.store.RefreshToken(ctx)
	if !ok {
		c.clearCredentials(ctx)
		return "", &common.APIError{
			Message: "No refresh token available",
			Code:    common.CodeNoRefreshToken,
			Status:  http.StatusUnauthorized,
			Err:     common.ErrNoRefreshToken,
		}
	}

	c.logger.Info("refreshing access token")
	tok, err := c.authClient.RefreshToken(ctx, refreshToken)
	if err != nil {
		if common.IsAuth(err) && !errors.Is(err, common.ErrSessionExpired) {
			return "", c.expireSession(ctx, "refresh rejected", err)
		}
		c.clearCredentials(ctx)
		return "", common.Normalize(fmt.Errorf("failed to refresh token: %w", err))
	}
	if tok == nil || tok.AccessToken == "" {
		c.clearCredentials(ctx)
		return "", &common.APIError{
			Message: "Refresh response did not contain an access token",
			Code:    common.CodeDecode,
			Status:  http.StatusUnauthorized,
		}
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}

	if err := c.store.WriteToken(ctx, tok); err != nil {
		// the in-memory credential is already updated; only persistence failed
		c.logger.Warn("failed to persist refreshed token", "error", err)
	}
	c.logger.Info("access token refreshed")
	return tok.AccessToken, nil
}

// RefreshToken exchanges refreshToken at the refresh endpoint. A 401 here is
// terminal and never triggers another refresh.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	body, err := json.Marshal(model.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	r := &request{
		method:      http.MethodPost,
		path:        c.refreshPath,
		body:        body,
		contentType: "application/json",
		isRefresh:   true,
	}
	data, err := c.execute(ctx, r)
	if err != nil {
		return nil, err
	}

	var resp model.RefreshResponse
	if err := decodePayload(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, errors.New("refresh response missing access token")
	}
	return resp.Token(refreshToken), nil
}
