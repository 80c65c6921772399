package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrProviderDisabled is returned when an OAuth provider has no
// configured credentials.
var ErrProviderDisabled = errors.New("oauth provider is not configured")

// OAuthUser is the external identity returned by a provider.
type OAuthUser struct {
	Email string
	Name  string
}

// Provider exchanges an authorization code for a verified identity.
type Provider interface {
	Name() string
	AuthorizationURL() string
	FetchUser(ctx context.Context, code string) (*OAuthUser, error)
}

// ProviderConfig holds per-provider OAuth credentials.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Tenant       string // Microsoft only
}

func (c ProviderConfig) enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// oauthClient performs provider calls with a single attempt, no retry.
// Failed exchanges surface to the caller and the user restarts the flow.
var oauthClient = &http.Client{Timeout: 10 * time.Second}

// Providers assembles the enabled providers from config.
func Providers(google, microsoft, facebook ProviderConfig) map[string]Provider {
	out := map[string]Provider{}
	if google.enabled() {
		out["google"] = &googleProvider{cfg: google}
	}
	if microsoft.enabled() {
		out["microsoft"] = &microsoftProvider{cfg: microsoft}
	}
	if facebook.enabled() {
		out["facebook"] = &facebookProvider{cfg: facebook}
	}
	return out
}

type googleProvider struct {
	cfg ProviderConfig
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) AuthorizationURL() string {
	return "https://accounts.google.com/o/oauth2/auth?response_type=code" +
		"&client_id=" + url.QueryEscape(p.cfg.ClientID) +
		"&redirect_uri=" + url.QueryEscape(p.cfg.RedirectURI) +
		"&scope=openid%20profile%20email&access_type=offline"
}

func (p *googleProvider) FetchUser(ctx context.Context, code string) (*OAuthUser, error) {
	token, err := exchangeCode(ctx, "https://accounts.google.com/o/oauth2/token", url.Values{
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.RedirectURI},
		"grant_type":    {"authorization_code"},
	})
	if err != nil {
		return nil, err
	}
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := fetchJSON(ctx, "https://www.googleapis.com/oauth2/v1/userinfo", token, &info); err != nil {
		return nil, err
	}
	return &OAuthUser{Email: info.Email, Name: info.Name}, nil
}

type microsoftProvider struct {
	cfg ProviderConfig
}

func (p *microsoftProvider) Name() string { return "microsoft" }

func (p *microsoftProvider) AuthorizationURL() string {
	return "https://login.microsoftonline.com/" + url.PathEscape(p.cfg.Tenant) +
		"/oauth2/v2.0/authorize?response_type=code" +
		"&client_id=" + url.QueryEscape(p.cfg.ClientID) +
		"&redirect_uri=" + url.QueryEscape(p.cfg.RedirectURI) +
		"&scope=openid%20profile%20email"
}

func (p *microsoftProvider) FetchUser(ctx context.Context, code string) (*OAuthUser, error) {
	tokenURL := "https://login.microsoftonline.com/" + url.PathEscape(p.cfg.Tenant) + "/oauth2/v2.0/token"
	token, err := exchangeCode(ctx, tokenURL, url.Values{
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.RedirectURI},
		"grant_type":    {"authorization_code"},
	})
	if err != nil {
		return nil, err
	}
	var info struct {
		Mail        string `json:"mail"`
		Principal   string `json:"userPrincipalName"`
		DisplayName string `json:"displayName"`
	}
	if err := fetchJSON(ctx, "https://graph.microsoft.com/v1.0/me", token, &info); err != nil {
		return nil, err
	}
	email := info.Mail
	if email == "" {
		email = info.Principal
	}
	return &OAuthUser{Email: email, Name: info.DisplayName}, nil
}

type facebookProvider struct {
	cfg ProviderConfig
}

func (p *facebookProvider) Name() string { return "facebook" }

func (p *facebookProvider) AuthorizationURL() string {
	return "https://www.facebook.com/v21.0/dialog/oauth?response_type=code" +
		"&client_id=" + url.QueryEscape(p.cfg.ClientID) +
		"&redirect_uri=" + url.QueryEscape(p.cfg.RedirectURI) +
		"&scope=email"
}

func (p *facebookProvider) FetchUser(ctx context.Context, code string) (*OAuthUser, error) {
	token, err := exchangeCode(ctx, "https://graph.facebook.com/v21.0/oauth/access_token", url.Values{
		"code":          {code},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"redirect_uri":  {p.cfg.RedirectURI},
	})
	if err != nil {
		return nil, err
	}
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	target := "https://graph.facebook.com/me?fields=id,name,email&access_token=" + url.QueryEscape(token)
	if err := fetchJSON(ctx, target, "", &info); err != nil {
		return nil, err
	}
	return &OAuthUser{Email: info.Email, Name: info.Name}, nil
}

func exchangeCode(ctx context.Context, tokenURL string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := oauthClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth token exchange: status %d", resp.StatusCode)
	}
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("oauth token exchange: no access token in response")
	}
	return payload.AccessToken, nil
}

func fetchJSON(ctx context.Context, target, bearer string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := oauthClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oauth userinfo: status %d", resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(dest)
}
