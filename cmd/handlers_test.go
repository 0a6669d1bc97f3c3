package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/playstats/playstats/config"
	"github.com/playstats/playstats/db"
	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const topLimit = 10

// fakeSpotify serves the token endpoint under /api/token and the Web API
// under /v1. It counts every request it receives.
func fakeSpotify(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "auth-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		writeJSON(w, map[string]any{
			"access_token":  "good-token",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})

	api := func(path string, body func(r *http.Request) any) {
		mux.HandleFunc("GET /v1"+path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer good-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, body(r))
		})
	}
	api("/me", func(*http.Request) any { return models.Profile{ID: "listener", DisplayName: "Listener"} })
	api("/me/top/tracks", func(r *http.Request) any {
		items := make([]models.Track, 25)
		for i := range items {
			items[i] = models.Track{ID: fmt.Sprintf("t%d", i), Name: fmt.Sprintf("Track %d", i)}
		}
		return models.Paging[models.Track]{Items: items}
	})
	api("/me/top/artists", func(*http.Request) any {
		return models.Paging[models.Artist]{Items: []models.Artist{{Name: "Artist", Genres: []string{"indie"}}}}
	})
	api("/me/player/recently-played", func(*http.Request) any {
		return models.RecentlyPlayed{Items: []models.PlayHistory{
			{Track: models.Track{Name: "Stay (feat. Justin Bieber)"}},
			{Track: models.Track{Name: "Dreams - 2004 Remaster"}},
		}}
	})
	api("/me/playlists", func(*http.Request) any { return models.Paging[models.Playlist]{} })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(spotifyURL string, configured bool) *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: "0", Env: "development"},
		App:    config.AppConfig{BaseURL: "http://localhost"},
		Spotify: config.SpotifyConfig{
			RedirectURI:       "http://localhost/api/auth/spotify/callback",
			Scopes:            []string{"user-top-read", "user-read-recently-played"},
			AuthURL:           spotifyURL + "/authorize",
			TokenURL:          spotifyURL + "/api/token",
			APIURL:            spotifyURL + "/v1",
			TopLimit:          topLimit,
			RequestsPerSecond: 100,
		},
		Riot:    config.RiotConfig{Region: "euw1"},
		Cookie:  config.CookieConfig{HashKey: strings.Repeat("h", 32), BlockKey: strings.Repeat("b", 32)},
		Session: config.SessionConfig{TTLHours: 1},
	}
	if configured {
		cfg.Spotify.ClientID = "client-id"
		cfg.Spotify.ClientSecret = "client-secret"
	}
	return cfg
}

// newTestServer runs the full route table and returns a client that keeps
// cookies and does not follow redirects.
func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *http.Client) {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Initialize())
	t.Cleanup(func() { database.Close() })

	app, err := newApplication(cfg, database, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func getJSON(t *testing.T, client *http.Client, target string, out any) *http.Response {
	t.Helper()
	resp, err := client.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func hasCookie(client *http.Client, target, name string) bool {
	u, _ := url.Parse(target)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func TestSpotifyConnectScenario(t *testing.T) {
	spotifySrv, _ := fakeSpotify(t)
	srv, client := newTestServer(t, testConfig(spotifySrv.URL, true))

	// sign up so the callback can record the connection
	resp, err := client.Post(srv.URL+"/api/auth/register", "application/json",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"password1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var login struct {
		URL string `json:"url"`
	}
	resp = getJSON(t, client, srv.URL+"/api/auth/spotify?format=json", &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	authURL, err := url.Parse(login.URL)
	require.NoError(t, err)
	assert.Equal(t, "/authorize", authURL.Path)
	assert.Equal(t, "client-id", authURL.Query().Get("client_id"))
	assert.Equal(t, "code", authURL.Query().Get("response_type"))
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	resp, err = client.Get(srv.URL + "/api/auth/spotify/callback?code=auth-code&state=" + url.QueryEscape(state))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, oauth.DashboardPath+"?spotify_connected=true", resp.Header.Get("Location"))
	assert.True(t, hasCookie(client, srv.URL, oauth.AccessTokenCookie))
	assert.True(t, hasCookie(client, srv.URL, oauth.RefreshTokenCookie))
	assert.False(t, hasCookie(client, srv.URL, oauth.StateCookie))

	var data models.UserData
	resp = getJSON(t, client, srv.URL+"/api/spotify/data?timeRange=short_term", &data)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.SourceSpotify, data.Source)
	assert.Empty(t, data.Error)
	assert.NotEmpty(t, data.TopTracks)
	assert.LessOrEqual(t, len(data.TopTracks), topLimit)
	assert.Equal(t, "short_term", data.TimeRange.Value)
	require.Len(t, data.RecentlyPlayed, 2)
	assert.Equal(t, "Stay", data.RecentlyPlayed[0].Name)
	assert.Equal(t, "Dreams", data.RecentlyPlayed[1].Name)

	var me struct {
		User models.User `json:"user"`
	}
	resp = getJSON(t, client, srv.URL+"/api/me", &me)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, me.User.SpotifyConnected)

	resp, err = client.Post(srv.URL+"/api/spotify/logout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, hasCookie(client, srv.URL, oauth.AccessTokenCookie))

	resp = getJSON(t, client, srv.URL+"/api/me", &me)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, me.User.SpotifyConnected)
}

func TestSpotifyCallbackStateMismatch(t *testing.T) {
	spotifySrv, calls := fakeSpotify(t)
	srv, client := newTestServer(t, testConfig(spotifySrv.URL, true))

	var login struct {
		URL string `json:"url"`
	}
	getJSON(t, client, srv.URL+"/api/auth/spotify?format=json", &login)

	resp, err := client.Get(srv.URL + "/api/auth/spotify/callback?code=auth-code&state=forged")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, oauth.DashboardPath+"?error=state_mismatch", resp.Header.Get("Location"))
	assert.Zero(t, atomic.LoadInt32(calls))
	assert.False(t, hasCookie(client, srv.URL, oauth.AccessTokenCookie))
}

func TestDemoModeWithoutCredentials(t *testing.T) {
	spotifySrv, calls := fakeSpotify(t)
	srv, client := newTestServer(t, testConfig(spotifySrv.URL, false))

	var data models.UserData
	resp := getJSON(t, client, srv.URL+"/api/spotify/data", &data)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.SourceDemo, data.Source)
	assert.NotEmpty(t, data.TopTracks)

	resp = getJSON(t, client, srv.URL+"/api/auth/spotify?format=json", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err := client.Get(srv.URL + "/api/auth/spotify")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, oauth.DashboardPath+"?error=not_configured", resp.Header.Get("Location"))

	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestSpotifyDebugHidesValues(t *testing.T) {
	cfg := testConfig("http://spotify.invalid", true)
	srv, client := newTestServer(t, cfg)

	resp, err := client.Get(srv.URL + "/api/spotify/debug")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	env := body["environment"].(map[string]any)
	assert.Equal(t, true, env["SPOTIFY_CLIENT_ID"])
	assert.Equal(t, true, env["SPOTIFY_CLIENT_SECRET"])
	assert.Equal(t, false, env["RIOT_API_KEY"])
	assert.Equal(t, true, body["configured"])

	raw, _ := json.Marshal(body)
	assert.NotContains(t, string(raw), "client-secret")
}

func TestPublicRoutes(t *testing.T) {
	srv, client := newTestServer(t, testConfig("http://spotify.invalid", false))

	resp := getJSON(t, client, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var tracks []models.ShowcaseTrack
	resp = getJSON(t, client, srv.URL+"/api/spotify?type=top-tracks", &tracks)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, tracks)

	resp = getJSON(t, client, srv.URL+"/api/league?type=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var stats models.PlayerStats
	resp = getJSON(t, client, srv.URL+"/api/league/stats?summoner=Faker", &stats)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.SourceDemo, stats.Source)
	assert.Equal(t, "Faker", stats.Summoner.Name)

	resp = getJSON(t, client, srv.URL+"/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/auth/league", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecoverPanic(t *testing.T) {
	app := &application{logger: zap.NewNop()}
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"server_error"}`, rec.Body.String())
}
