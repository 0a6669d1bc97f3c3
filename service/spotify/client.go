package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/playstats/playstats/config"
	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const maxLimit = 50

// Client calls the Spotify Web API on behalf of a user access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	limit      int
	cleaner    *TitleCleaner
	logger     *zap.Logger
}

func NewClient(cfg config.SpotifyConfig, logger *zap.Logger) *Client {
	limit := cfg.TopLimit
	if limit < 1 || limit > maxLimit {
		limit = maxLimit
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	// the dashboard fans out five requests at once
	burst := max(5, int(rps))

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		limit:      limit,
		cleaner:    NewTitleCleaner(),
		logger:     logger,
	}
}

// Limit is the number of items requested per list.
func (c *Client) Limit() int {
	return c.limit
}

func (c *Client) get(ctx context.Context, accessToken, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if err := apperr.FromResponse(resp); err != nil {
		c.logger.Debug("spotify api error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", apperr.ErrUpstream, path, err)
	}
	return nil
}

func (c *Client) listQuery(timeRange string) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.limit))
	if timeRange != "" {
		q.Set("time_range", timeRange)
	}
	return q
}

func (c *Client) Profile(ctx context.Context, accessToken string) (*models.Profile, error) {
	var profile models.Profile
	if err := c.get(ctx, accessToken, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) TopTracks(ctx context.Context, accessToken, timeRange string) ([]models.Track, error) {
	var page models.Paging[models.Track]
	if err := c.get(ctx, accessToken, "/me/top/tracks", c.listQuery(timeRange), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) TopArtists(ctx context.Context, accessToken, timeRange string) ([]models.Artist, error) {
	var page models.Paging[models.Artist]
	if err := c.get(ctx, accessToken, "/me/top/artists", c.listQuery(timeRange), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) RecentlyPlayed(ctx context.Context, accessToken string) ([]models.PlayHistory, error) {
	var recent models.RecentlyPlayed
	if err := c.get(ctx, accessToken, "/me/player/recently-played", c.listQuery(""), &recent); err != nil {
		return nil, err
	}
	return recent.Items, nil
}

func (c *Client) Playlists(ctx context.Context, accessToken string) ([]models.Playlist, error) {
	var page models.Paging[models.Playlist]
	if err := c.get(ctx, accessToken, "/me/playlists", c.listQuery(""), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FetchUserData loads profile, top tracks, top artists, recently played and
// playlists concurrently. The first failure cancels the remaining calls and
// is returned once all of them have finished.
func (c *Client) FetchUserData(ctx context.Context, accessToken string, tr models.TimeRange) (*models.UserData, error) {
	var (
		profile   *models.Profile
		tracks    []models.Track
		artists   []models.Artist
		history   []models.PlayHistory
		playlists []models.Playlist
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = c.Profile(gctx, accessToken)
		return err
	})
	g.Go(func() (err error) {
		tracks, err = c.TopTracks(gctx, accessToken, tr.Value)
		return err
	})
	g.Go(func() (err error) {
		artists, err = c.TopArtists(gctx, accessToken, tr.Value)
		return err
	})
	g.Go(func() (err error) {
		history, err = c.RecentlyPlayed(gctx, accessToken)
		return err
	})
	g.Go(func() (err error) {
		playlists, err = c.Playlists(gctx, accessToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recent := make([]models.Track, 0, len(history))
	for _, item := range history {
		track := item.Track
		if cleaned, changed := c.cleaner.Clean(track.Name); changed {
			track.Name = cleaned
		}
		recent = append(recent, track)
	}

	return &models.UserData{
		Profile:        profile,
		TopTracks:      capped(tracks, c.limit),
		TopArtists:     capped(artists, c.limit),
		RecentlyPlayed: capped(recent, c.limit),
		Playlists:      capped(playlists, c.limit),
		Genres:         GenreBreakdown(artists),
		TimeRange:      tr,
		Source:         models.SourceSpotify,
	}, nil
}

// capped guards the configured limit even if the API returns more items.
func capped[T any](items []T, limit int) []T {
	if items == nil {
		return []T{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
