package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/baechuer/sso-service/internal/domain"
)

const providerName = "google"

// GoogleConfig holds what the Google client needs. Empty endpoint fields fall
// back to Google's production endpoints.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	ProfileURL   string

	AuthURL  string
	TokenURL string

	HTTPClient *http.Client
}

// GoogleClient handles the Google OAuth 2.0 code flow and the userinfo lookup.
type GoogleClient struct {
	oauthConfig *oauth2.Config
	profileURL  string
	httpClient  *http.Client
}

func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	endpoint := endpoints.Google
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoogleClient{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		profileURL: cfg.ProfileURL,
		httpClient: httpClient,
	}
}

// Name returns the provider identifier used by the registry.
func (c *GoogleClient) Name() string { return providerName }

// AuthURL returns the Google authorization URL with an S256 PKCE challenge.
func (c *GoogleClient) AuthURL(state, codeVerifier string) string {
	return c.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(codeVerifier),
	)
}

// Exchange trades the authorization code for tokens.
func (c *GoogleClient) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}
	return tok, nil
}

// userInfo is the body of Google's v3 userinfo endpoint.
type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// FetchProfile reads the signed-in user's profile from the userinfo endpoint.
// A missing email is not an error here; the resolver decides what that means.
func (c *GoogleClient) FetchProfile(ctx context.Context, token *oauth2.Token) (domain.Profile, error) {
	if token == nil || token.AccessToken == "" {
		return domain.Profile{}, errors.New("access token is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return domain.Profile{}, err
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to read userinfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("userinfo request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to parse userinfo: %w", err)
	}

	return domain.Profile{
		Provider:      providerName,
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
