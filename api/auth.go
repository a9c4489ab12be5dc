package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/brettboylen/reddit-feeds/models"
)

// Credentials are the script-app credentials used for the password grant
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// TokenAcquirer exchanges credentials for a bearer token
type TokenAcquirer struct {
	oauth      *oauth2.Config
	creds      Credentials
	httpClient *http.Client
}

// NewTokenAcquirer creates a token acquirer posting to tokenURL
func NewTokenAcquirer(creds Credentials, tokenURL string, httpClient *http.Client) *TokenAcquirer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// oauth2 builds its own requests, so the User-Agent is added by the transport
	uaClient := *httpClient
	uaClient.Transport = &userAgentTransport{
		userAgent: creds.UserAgent,
		base:      httpClient.Transport,
	}

	return &TokenAcquirer{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		creds:      creds,
		httpClient: &uaClient,
	}
}

// Acquire performs one password-grant exchange and returns the access token
func (a *TokenAcquirer) Acquire(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	token, err := a.oauth.PasswordCredentialsToken(ctx, a.creds.Username, a.creds.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", fmt.Errorf("%w: token endpoint returned status %d: %s",
				models.ErrAuth, retrieveErr.Response.StatusCode, string(retrieveErr.Body))
		}
		return "", fmt.Errorf("%w: %v", models.ErrAuth, err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: access token not found in the response", models.ErrAuth)
	}

	return token.AccessToken, nil
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return base.RoundTrip(req)
}
