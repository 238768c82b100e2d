// Package line talks to the LINE Platform to verify login access
// tokens and fetch the owner's profile.
package line

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vehicle-reserve-backend/internal/domain"
)

const (
	verifyURL  = "https://api.line.me/oauth2/v2.1/verify"
	profileURL = "https://api.line.me/v2/profile"
)

// Verifier validates a LINE access token and returns the profile it
// belongs to. Implemented by Client; mocked in handler tests.
type Verifier interface {
	VerifyAndFetchProfile(ctx context.Context, accessToken string) (domain.LineProfile, error)
}

// Client is the HTTP implementation of Verifier.
type Client struct {
	ChannelID string
	HTTP      *http.Client
	// BaseVerifyURL and BaseProfileURL override the LINE endpoints in
	// tests. Empty means the real platform URLs.
	BaseVerifyURL  string
	BaseProfileURL string
}

func NewClient(channelID string) *Client {
	return &Client{
		ChannelID: channelID,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyResponse struct {
	ClientID  string `json:"client_id"`
	ExpiresIn int64  `json:"expires_in"`
}

type profileResponse struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// VerifyAndFetchProfile checks the access token against the verify
// endpoint, confirms it was issued for our channel and is not expired,
// then loads the profile. All failures surface as authentication
// errors so the login handler maps them to 401.
func (c *Client) VerifyAndFetchProfile(ctx context.Context, accessToken string) (domain.LineProfile, error) {
	if err := c.verify(ctx, accessToken); err != nil {
		return domain.LineProfile{}, err
	}
	return c.profile(ctx, accessToken)
}

func (c *Client) verify(ctx context.Context, accessToken string) error {
	endpoint := c.BaseVerifyURL
	if endpoint == "" {
		endpoint = verifyURL
	}
	form := url.Values{"access_token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("line verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Authentication("invalid LINE access token")
	}
	var v verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return fmt.Errorf("line verify: decode: %w", err)
	}
	if v.ClientID != c.ChannelID {
		return domain.Authentication("LINE token issued for another channel")
	}
	if v.ExpiresIn <= 0 {
		return domain.Authentication("LINE token expired")
	}
	return nil
}

func (c *Client) profile(ctx context.Context, accessToken string) (domain.LineProfile, error) {
	endpoint := c.BaseProfileURL
	if endpoint == "" {
		endpoint = profileURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.LineProfile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return domain.LineProfile{}, fmt.Errorf("line profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.LineProfile{}, domain.Authentication("failed to fetch LINE profile")
	}
	var p profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return domain.LineProfile{}, fmt.Errorf("line profile: decode: %w", err)
	}
	if p.UserID == "" {
		return domain.LineProfile{}, domain.Authentication("LINE profile missing user id")
	}
	return domain.LineProfile{
		LineID:      p.UserID,
		DisplayName: p.DisplayName,
		PictureURL:  p.PictureURL,
	}, nil
}
