package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"
)

const (
	AccessTokenCookie  = "spotify_access_token"
	RefreshTokenCookie = "spotify_refresh_token"
	StateCookie        = "spotify_auth_state"
	ConnectedCookie    = "spotify_connected"

	refreshTokenMaxAge = 30 * 24 * 60 * 60
	stateMaxAge        = 10 * 60
	// used when the provider does not report expires_in
	defaultAccessMaxAge = 60 * 60
)

type accessCookieValue struct {
	Token  string    `json:"t"`
	Expiry time.Time `json:"e"`
}

type stateCookieValue struct {
	State    string    `json:"s"`
	IssuedAt time.Time `json:"i"`
}

// CookieStore persists tokens and the pending state nonce in signed and
// encrypted httpOnly cookies.
type CookieStore struct {
	codec      *securecookie.SecureCookie
	stateCodec *securecookie.SecureCookie
	secure     bool
	now        func() time.Time
}

// NewCookieStore builds a store from a 32 or 64 byte hash key and a 16, 24
// or 32 byte block key.
func NewCookieStore(hashKey, blockKey []byte, secure bool) (*CookieStore, error) {
	if len(hashKey) < 32 {
		return nil, fmt.Errorf("cookie hash key must be at least 32 bytes, got %d", len(hashKey))
	}
	switch len(blockKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("cookie block key must be 16, 24 or 32 bytes, got %d", len(blockKey))
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(refreshTokenMaxAge)

	// the state nonce gets its own codec so its signature expires with it
	stateCodec := securecookie.New(hashKey, blockKey)
	stateCodec.SetSerializer(securecookie.JSONEncoder{})
	stateCodec.MaxAge(stateMaxAge)

	return &CookieStore{codec: codec, stateCodec: stateCodec, secure: secure, now: time.Now}, nil
}

func (s *CookieStore) set(w http.ResponseWriter, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *CookieStore) encodeAndSet(w http.ResponseWriter, name string, value any, maxAge int) error {
	encoded, err := s.codec.Encode(name, value)
	if err != nil {
		return fmt.Errorf("encoding %s cookie: %w", name, err)
	}
	s.set(w, name, encoded, maxAge, true)
	return nil
}

// Save writes the token pair. The access cookie lives exactly as long as the
// access token; the refresh cookie for 30 days.
func (s *CookieStore) Save(w http.ResponseWriter, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("no access token to save")
	}

	maxAge := defaultAccessMaxAge
	if !tok.Expiry.IsZero() {
		maxAge = int(time.Until(tok.Expiry).Seconds())
		if maxAge <= 0 {
			maxAge = -1
		}
	}

	if err := s.encodeAndSet(w, AccessTokenCookie, accessCookieValue{Token: tok.AccessToken, Expiry: tok.Expiry}, maxAge); err != nil {
		return err
	}
	if tok.RefreshToken != "" {
		if err := s.encodeAndSet(w, RefreshTokenCookie, tok.RefreshToken, refreshTokenMaxAge); err != nil {
			return err
		}
	}
	s.set(w, ConnectedCookie, "true", refreshTokenMaxAge, false)
	return nil
}

// Load reads whatever token cookies the request carries. It returns nil when
// neither an access nor a refresh token is present. Cookies that fail to
// decode are treated as absent.
func (s *CookieStore) Load(r *http.Request) *oauth2.Token {
	tok := &oauth2.Token{TokenType: "Bearer"}

	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		var v accessCookieValue
		if s.codec.Decode(AccessTokenCookie, c.Value, &v) == nil {
			tok.AccessToken = v.Token
			tok.Expiry = v.Expiry
		}
	}
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		var refresh string
		if s.codec.Decode(RefreshTokenCookie, c.Value, &refresh) == nil {
			tok.RefreshToken = refresh
		}
	}

	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil
	}
	return tok
}

// Clear removes all token cookies.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	s.set(w, AccessTokenCookie, "", -1, true)
	s.set(w, RefreshTokenCookie, "", -1, true)
	s.set(w, ConnectedCookie, "", -1, false)
}

func (s *CookieStore) SaveState(w http.ResponseWriter, state string) error {
	encoded, err := s.stateCodec.Encode(StateCookie, stateCookieValue{State: state, IssuedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding %s cookie: %w", StateCookie, err)
	}
	s.set(w, StateCookie, encoded, stateMaxAge, true)
	return nil
}

// LoadState returns the pending state nonce, if any. A nonce older than ten
// minutes is treated as absent.
func (s *CookieStore) LoadState(r *http.Request) (string, bool) {
	c, err := r.Cookie(StateCookie)
	if err != nil {
		return "", false
	}
	var v stateCookieValue
	if err := s.stateCodec.Decode(StateCookie, c.Value, &v); err != nil {
		return "", false
	}
	if s.now().Sub(v.IssuedAt) > stateMaxAge*time.Second {
		return "", false
	}
	return v.State, v.State != ""
}

func (s *CookieStore) ClearState(w http.ResponseWriter) {
	s.set(w, StateCookie, "", -1, true)
}
