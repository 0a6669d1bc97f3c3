package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/playstats/playstats/config"
	"github.com/playstats/playstats/db"
	"github.com/playstats/playstats/oauth"
	"github.com/playstats/playstats/pkg/logger"
	"github.com/playstats/playstats/service/account"
	"github.com/playstats/playstats/service/league"
	"github.com/playstats/playstats/service/spotify"
	"github.com/playstats/playstats/session"
	"go.uber.org/zap"
)

type application struct {
	cfg            *config.Config
	logger         *zap.Logger
	database       *db.DB
	sessionManager *session.SessionManager
	oauthManager   *oauth.OAuthServiceManager
	accountService *account.Service
	spotifyService *spotify.SpotifyService
	leagueService  *league.LeagueService
	startedAt      time.Time
}

// cookieKeys returns the configured cookie keys. Missing keys are generated,
// which means token cookies do not survive a restart.
func cookieKeys(cfg config.CookieConfig, log *zap.Logger) (hashKey, blockKey []byte) {
	hashKey = []byte(cfg.HashKey)
	blockKey = []byte(cfg.BlockKey)
	if len(hashKey) == 0 {
		log.Warn("cookie.hash_key not set, generating a random key for this process")
		hashKey = securecookie.GenerateRandomKey(64)
	}
	if len(blockKey) == 0 {
		log.Warn("cookie.block_key not set, generating a random key for this process")
		blockKey = securecookie.GenerateRandomKey(32)
	}
	return hashKey, blockKey
}

func newApplication(cfg *config.Config, database *db.DB, log *zap.Logger) (*application, error) {
	hashKey, blockKey := cookieKeys(cfg.Cookie, log)
	cookies, err := oauth.NewCookieStore(hashKey, blockKey, cfg.Secure())
	if err != nil {
		return nil, fmt.Errorf("creating cookie store: %w", err)
	}

	sessionManager := session.NewSessionManager(database, time.Duration(cfg.Session.TTLHours)*time.Hour, cfg.Secure(), log.Named("session"))

	leagueClient := league.NewClient(cfg.Riot, log.Named("riot"))
	accountService := account.NewAccountService(database, sessionManager, leagueClient, log.Named("account"))

	spotifyOAuth := oauth.NewOAuth2Service(cfg.Spotify, cookies, log.Named("oauth"))
	oauthManager := oauth.NewOAuthServiceManager(accountService, log.Named("oauth"))
	oauthManager.RegisterService(account.ServiceSpotify, spotifyOAuth)

	spotifyService := spotify.NewSpotifyService(
		spotify.NewClient(cfg.Spotify, log.Named("spotify")),
		spotifyOAuth,
		cookies,
		accountService,
		cfg.Spotify.Configured(),
		log.Named("spotify"),
	)

	return &application{
		cfg:            cfg,
		logger:         log,
		database:       database,
		sessionManager: sessionManager,
		oauthManager:   oauthManager,
		accountService: accountService,
		spotifyService: spotifyService,
		leagueService:  league.NewLeagueService(leagueClient, log.Named("league")),
		startedAt:      time.Now(),
	}, nil
}

// purgeSessions drops expired sessions until ctx is cancelled.
func (app *application) purgeSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.sessionManager.PurgeExpired()
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	database, err := db.New(cfg.DB.Path)
	if err != nil {
		log.Fatal("error connecting to database", zap.String("path", cfg.DB.Path), zap.Error(err))
	}
	defer database.Close()

	if err := database.Initialize(); err != nil {
		log.Fatal("error initializing database", zap.Error(err))
	}

	app, err := newApplication(cfg, database, log)
	if err != nil {
		log.Fatal("error creating application", zap.Error(err))
	}

	if missing := cfg.MissingSpotify(); len(missing) > 0 {
		log.Warn("spotify credentials not configured, the dashboard serves demo data",
			zap.Strings("missing", missing))
	}
	if cfg.Riot.APIKey == "" {
		log.Warn("riot.api_key not set, league stats are mock data")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.purgeSessions(ctx, time.Hour)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("url", "http://"+cfg.Addr()), zap.String("env", cfg.Server.Env))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
