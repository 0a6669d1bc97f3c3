package main

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/playstats/playstats/service/account"
	"github.com/playstats/playstats/session"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()
	sm := app.sessionManager

	mux.HandleFunc("GET /health", app.health)

	// Accounts
	mux.HandleFunc("POST /api/auth/register", app.accountService.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", app.accountService.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", app.accountService.HandleLogout)
	mux.HandleFunc("GET /api/me", session.WithAuth(app.accountService.HandleMe, sm))

	// OAuth Routes
	mux.HandleFunc("GET /api/auth/spotify", app.requireSpotify(app.oauthManager.HandleLogin(account.ServiceSpotify)))
	mux.HandleFunc("GET /api/auth/spotify/callback", session.WithPossibleAuth(app.oauthManager.HandleCallback(account.ServiceSpotify), sm))

	// Spotify
	mux.HandleFunc("GET /api/spotify", app.spotifyService.HandleShowcase)
	mux.HandleFunc("GET /api/spotify/data", app.spotifyService.HandleDashboard)
	mux.HandleFunc("POST /api/spotify/logout", session.WithPossibleAuth(app.spotifyService.HandleLogout, sm))
	mux.HandleFunc("GET /api/spotify/debug", app.spotifyDebug)

	// League of Legends
	mux.HandleFunc("GET /api/league", app.leagueService.HandleOverview)
	mux.HandleFunc("GET /api/league/stats", app.leagueService.HandleStats)
	mux.HandleFunc("POST /api/auth/league", session.WithAuth(app.accountService.HandleConnectLeague, sm))
	mux.HandleFunc("DELETE /api/auth/league", session.WithAuth(app.accountService.HandleDisconnectLeague, sm))

	standard := alice.New(app.recoverPanic, app.logRequest, commonHeaders)
	return standard.Then(mux)
}
