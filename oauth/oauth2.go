package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/playstats/playstats/config"
	"github.com/playstats/playstats/pkg/apperr"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

// ProviderError is an error the provider reported on the callback, such as
// access_denied when the user cancels the consent dialog.
type ProviderError struct {
	Code string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned error: %s", e.Code)
}

// OAuth2Service runs the authorization-code flow against Spotify with the
// client secret sent as HTTP Basic auth.
type OAuth2Service struct {
	config     oauth2.Config
	cookies    *CookieStore
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOAuth2Service creates a new OAuth2Service. The endpoint URLs default
// to Spotify's and can be overridden for tests.
func NewOAuth2Service(cfg config.SpotifyConfig, cookies *CookieStore, logger *zap.Logger) *OAuth2Service {
	endpoint := spotify.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	return &OAuth2Service{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		cookies:    cookies,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (o *OAuth2Service) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

// AuthorizationURL issues a fresh state nonce, persists it in the state
// cookie and returns the provider's authorize URL.
func (o *OAuth2Service) AuthorizationURL(w http.ResponseWriter) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	if err := o.cookies.SaveState(w, state); err != nil {
		return "", err
	}
	return o.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true")), nil
}

// ExchangeCode validates the callback against the persisted state and trades
// the code for a token pair.
func (o *OAuth2Service) ExchangeCode(ctx context.Context, r *http.Request, code, state string) (*oauth2.Token, error) {
	issued, _ := o.cookies.LoadState(r)
	if !VerifyState(issued, state) {
		return nil, apperr.ErrStateMismatch
	}
	if code == "" {
		return nil, apperr.ErrMissingCode
	}

	token, err := o.config.Exchange(o.withClient(ctx), code)
	if err != nil {
		o.logRetrieveError("token exchange failed", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrTokenExchangeFailed, err)
	}

	o.logger.Debug("exchanged authorization code",
		zap.Time("expiry", token.Expiry),
		zap.Bool("has_refresh_token", token.RefreshToken != ""))
	return token, nil
}

// RefreshToken trades a refresh token for a new pair. When the provider
// rotates the refresh token the new one is returned; otherwise the old one
// is carried over.
func (o *OAuth2Service) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", apperr.ErrTokenRefreshFailed)
	}

	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	token, err := o.config.TokenSource(o.withClient(ctx), expired).Token()
	if err != nil {
		o.logRetrieveError("token refresh failed", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrTokenRefreshFailed, err)
	}

	o.logger.Debug("refreshed access token",
		zap.Time("expiry", token.Expiry),
		zap.Bool("rotated_refresh_token", token.RefreshToken != refreshToken))
	return token, nil
}

func (o *OAuth2Service) logRetrieveError(msg string, err error) {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		o.logger.Warn(msg,
			zap.Int("status", re.Response.StatusCode),
			zap.String("error_code", re.ErrorCode))
		return
	}
	o.logger.Warn(msg, zap.Error(err))
}

// HandleLogin redirects to the authorize page, or returns {"url": ...} when
// called with ?format=json.
func (o *OAuth2Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := o.AuthorizationURL(w)
	if err != nil {
		o.logger.Error("building authorization url", zap.Error(err))
		http.Error(w, "failed to start authorization", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": authURL})
		return
	}
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// HandleCallback consumes the pending state, exchanges the code and persists
// the tokens in cookies.
func (o *OAuth2Service) HandleCallback(w http.ResponseWriter, r *http.Request) (*oauth2.Token, error) {
	defer o.cookies.ClearState(w)

	lc := NewLifecycle(AwaitingCallback, o.logger)
	token, err := o.completeCallback(w, r)
	event := EventCallbackValid
	if err != nil {
		event = EventCallbackInvalid
	}
	if ferr := lc.Fire(event); ferr != nil {
		o.logger.Error("callback left the lifecycle out of step", zap.Error(ferr))
	}
	return token, err
}

func (o *OAuth2Service) completeCallback(w http.ResponseWriter, r *http.Request) (*oauth2.Token, error) {
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		return nil, &ProviderError{Code: providerErr}
	}

	token, err := o.ExchangeCode(r.Context(), r, q.Get("code"), q.Get("state"))
	if err != nil {
		return nil, err
	}

	if err := o.cookies.Save(w, token); err != nil {
		return nil, fmt.Errorf("persisting tokens: %w", err)
	}
	return token, nil
}

// Cookies exposes the token store so data handlers read the same cookies.
func (o *OAuth2Service) Cookies() *CookieStore {
	return o.cookies
}
