package main

import (
	"net/http"
	"net/url"
	"time"

	"github.com/playstats/playstats/oauth"
	"github.com/playstats/playstats/pkg/apperr"
	"github.com/playstats/playstats/pkg/respond"
)

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(app.startedAt).Round(time.Second).String(),
	})
}

// spotifyDebug reports which Spotify settings are present, never their
// values.
func (app *application) spotifyDebug(w http.ResponseWriter, r *http.Request) {
	s := app.cfg.Spotify
	environment := map[string]any{
		"SPOTIFY_CLIENT_ID":     s.ClientID != "",
		"SPOTIFY_CLIENT_SECRET": s.ClientSecret != "",
		"SPOTIFY_REDIRECT_URI":  s.RedirectURI != "",
		"APP_BASE_URL":          app.cfg.App.BaseURL,
		"RIOT_API_KEY":          app.cfg.Riot.APIKey != "",
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":     "Spotify API debug information",
		"environment": environment,
		"configured":  s.Configured(),
		"env":         app.cfg.Server.Env,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// requireSpotify short-circuits the login flow when no client credentials
// are configured.
func (app *application) requireSpotify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.cfg.Spotify.Configured() {
			next(w, r)
			return
		}

		code := apperr.ErrorCode(apperr.ErrNotConfigured)
		if r.URL.Query().Get("format") == "json" {
			respond.Error(w, http.StatusServiceUnavailable, code)
			return
		}
		q := url.Values{}
		q.Set("error", code)
		http.Redirect(w, r, oauth.DashboardPath+"?"+q.Encode(), http.StatusSeeOther)
	}
}
