package spotify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/oauth"
	"github.com/playstats/playstats/pkg/apperr"
	"github.com/playstats/playstats/pkg/respond"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Fetcher loads a user's dashboard data with an access token.
type Fetcher interface {
	FetchUserData(ctx context.Context, accessToken string, tr models.TimeRange) (*models.UserData, error)
}

// Refresher trades a refresh token for a new token pair.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// ConnectionRecorder clears the signed-in user's connection flag.
type ConnectionRecorder interface {
	MarkDisconnected(ctx context.Context, service string) error
}

// DashboardResult is the outcome of one dashboard request. Token, when set,
// is a refreshed pair the caller must persist. ClearTokens asks the caller to
// drop the stored tokens because they can no longer be used.
type DashboardResult struct {
	Data        *models.UserData
	Token       *oauth2.Token
	ClearTokens bool
}

type SpotifyService struct {
	fetcher     Fetcher
	refresher   Refresher
	cookies     *oauth.CookieStore
	connections ConnectionRecorder
	configured  bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewSpotifyService wires the dashboard. When configured is false every
// request is served from demo data without touching the network.
func NewSpotifyService(fetcher Fetcher, refresher Refresher, cookies *oauth.CookieStore, connections ConnectionRecorder, configured bool, logger *zap.Logger) *SpotifyService {
	return &SpotifyService{
		fetcher:     fetcher,
		refresher:   refresher,
		cookies:     cookies,
		connections: connections,
		configured:  configured,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *SpotifyService) demo(tr models.TimeRange, err error) DashboardResult {
	return DashboardResult{Data: DemoUserData(tr, apperr.ErrorCode(err))}
}

// Dashboard returns live data when the tokens allow it and demo data
// otherwise. It refreshes at most once: up front when the access token is
// missing or expired, or after the first fetch is rejected with 401.
func (s *SpotifyService) Dashboard(ctx context.Context, tok *oauth2.Token, tr models.TimeRange) DashboardResult {
	if !s.configured {
		return s.demo(tr, nil)
	}
	if tok == nil {
		return s.demo(tr, nil)
	}

	lc := oauth.NewLifecycle(oauth.DeriveState(tok, false, s.now()), s.logger)
	var refreshed *oauth2.Token

	switch lc.State() {
	case oauth.Unauthenticated:
		// access token expired and nothing to refresh it with
		res := s.demo(tr, apperr.ErrUnauthorized)
		res.ClearTokens = true
		return res
	case oauth.Expired:
		newTok, err := s.refresh(ctx, lc, tok.RefreshToken)
		if err != nil {
			res := s.demo(tr, err)
			res.ClearTokens = true
			return res
		}
		refreshed = newTok
	}

	accessToken := tok.AccessToken
	if refreshed != nil {
		accessToken = refreshed.AccessToken
	}

	data, err := s.fetcher.FetchUserData(ctx, accessToken, tr)
	if errors.Is(err, apperr.ErrUnauthorized) && refreshed == nil && tok.RefreshToken != "" {
		s.logger.Debug("access token rejected, refreshing once")
		s.advance(lc, oauth.EventTokenExpired)

		newTok, rerr := s.refresh(ctx, lc, tok.RefreshToken)
		if rerr != nil {
			res := s.demo(tr, rerr)
			res.ClearTokens = true
			return res
		}
		refreshed = newTok
		data, err = s.fetcher.FetchUserData(ctx, refreshed.AccessToken, tr)
	}

	if err != nil {
		s.logger.Warn("spotify fetch failed, serving demo data",
			zap.String("code", apperr.ErrorCode(err)), zap.Error(err))
		res := s.demo(tr, err)
		res.Token = refreshed
		res.ClearTokens = errors.Is(err, apperr.ErrUnauthorized) && tok.RefreshToken == ""
		return res
	}

	return DashboardResult{Data: data, Token: refreshed}
}

// advance fires e. The refresh path only takes legal transitions, so a
// rejection means the lifecycle and the code have drifted apart.
func (s *SpotifyService) advance(lc *oauth.Lifecycle, e oauth.Event) {
	if err := lc.Fire(e); err != nil {
		s.logger.Error("token lifecycle out of step", zap.Stringer("event", e), zap.Error(err))
	}
}

func (s *SpotifyService) refresh(ctx context.Context, lc *oauth.Lifecycle, refreshToken string) (*oauth2.Token, error) {
	s.advance(lc, oauth.EventRefreshStarted)

	newTok, err := s.refresher.RefreshToken(ctx, refreshToken)
	if err != nil {
		s.advance(lc, oauth.EventRefreshFailed)
		s.logger.Warn("spotify token refresh failed", zap.Error(err))
		if !errors.Is(err, apperr.ErrTokenRefreshFailed) {
			err = errors.Join(apperr.ErrTokenRefreshFailed, err)
		}
		return nil, err
	}

	s.advance(lc, oauth.EventRefreshSucceeded)
	if newTok.RefreshToken == "" {
		newTok.RefreshToken = refreshToken
	}
	return newTok, nil
}

// HandleDashboard serves GET /api/spotify/data?timeRange=. It always answers
// 200; failures surface as demo data with an error code.
func (s *SpotifyService) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	tr := ParseTimeRange(r.URL.Query().Get("timeRange"))

	res := s.Dashboard(r.Context(), s.cookies.Load(r), tr)

	if res.Token != nil {
		if err := s.cookies.Save(w, res.Token); err != nil {
			s.logger.Error("persisting refreshed spotify token", zap.Error(err))
		}
	}
	if res.ClearTokens {
		s.cookies.Clear(w)
	}

	respond.JSON(w, http.StatusOK, res.Data)
}

// HandleShowcase serves the fixed widgets at GET /api/spotify?type=.
func (s *SpotifyService) HandleShowcase(w http.ResponseWriter, r *http.Request) {
	data, err := Showcase(r.URL.Query().Get("type"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid data type")
		return
	}
	respond.JSON(w, http.StatusOK, data)
}

// HandleLogout drops the token cookies and the signed-in user's connection.
func (s *SpotifyService) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.Clear(w)

	if s.connections != nil {
		if err := s.connections.MarkDisconnected(r.Context(), "spotify"); err != nil {
			s.logger.Error("clearing spotify connection", zap.Error(err))
		}
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
