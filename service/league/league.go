package league

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/playstats/playstats/config"
	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const recentMatchCount = 5

// Client reads summoner statistics from the Riot API. Without an API key it
// serves deterministic mock records instead. There are no retries and no
// caching.
type Client struct {
	apiKey     string
	region     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(cfg config.RiotConfig, logger *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	region := strings.ToLower(cfg.Region)
	if _, ok := RegionalRoute(region); !ok {
		if region != "" {
			logger.Warn("unknown riot region, using euw1", zap.String("region", cfg.Region))
		}
		region = "euw1"
	}

	return &Client{
		apiKey:     cfg.APIKey,
		region:     region,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
		logger:     logger,
	}
}

// Configured reports whether live Riot data is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) DefaultRegion() string {
	return c.region
}

// checkRegion rejects anything outside the known platform set. The region
// becomes part of the request host.
func checkRegion(region string) error {
	if _, ok := RegionalRoute(region); !ok {
		return fmt.Errorf("%w: unknown region %q", apperr.ErrInvalidInput, region)
	}
	return nil
}

func (c *Client) platformURL(region string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", region)
}

func (c *Client) regionalURL(region string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	route, ok := RegionalRoute(region)
	if !ok {
		route = "europe"
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", route)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if err := apperr.FromResponse(resp); err != nil {
		c.logger.Debug("riot api error", zap.String("url", req.URL.Path), zap.Int("status", resp.StatusCode))
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", apperr.ErrUpstream, err)
	}
	return nil
}

type riotAccount struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// Summoner resolves a summoner. Names with a #TAG go through account-v1 by
// Riot ID; bare names use the summoner-v4 by-name lookup.
func (c *Client) Summoner(ctx context.Context, region, name string) (*models.Summoner, error) {
	region = strings.ToLower(region)
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	var summoner models.Summoner

	if gameName, tag, ok := strings.Cut(name, "#"); ok {
		var account riotAccount
		endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
			c.regionalURL(region), url.PathEscape(gameName), url.PathEscape(tag))
		if err := c.get(ctx, endpoint, &account); err != nil {
			return nil, fmt.Errorf("account lookup: %w", err)
		}
		endpoint = fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.platformURL(region), url.PathEscape(account.PUUID))
		if err := c.get(ctx, endpoint, &summoner); err != nil {
			return nil, fmt.Errorf("summoner lookup: %w", err)
		}
		if summoner.Name == "" {
			summoner.Name = account.GameName + "#" + account.TagLine
		}
		return &summoner, nil
	}

	endpoint := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-name/%s", c.platformURL(region), url.PathEscape(name))
	if err := c.get(ctx, endpoint, &summoner); err != nil {
		return nil, fmt.Errorf("summoner lookup: %w", err)
	}
	return &summoner, nil
}

func (c *Client) leagueEntries(ctx context.Context, region, summonerID string) ([]models.LeagueEntry, error) {
	var entries []models.LeagueEntry
	endpoint := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s", c.platformURL(region), url.PathEscape(summonerID))
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("league entries: %w", err)
	}
	return entries, nil
}

func (c *Client) matchIDs(ctx context.Context, region, puuid string, count int) ([]string, error) {
	var ids []string
	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?count=%d", c.regionalURL(region), url.PathEscape(puuid), count)
	if err := c.get(ctx, endpoint, &ids); err != nil {
		return nil, fmt.Errorf("match ids: %w", err)
	}
	return ids, nil
}

func (c *Client) match(ctx context.Context, region, matchID string) (*models.Match, error) {
	var m models.Match
	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalURL(region), url.PathEscape(matchID))
	if err := c.get(ctx, endpoint, &m); err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	return &m, nil
}

func (c *Client) masteries(ctx context.Context, region, puuid string) ([]models.ChampionMastery, error) {
	var out []models.ChampionMastery
	endpoint := fmt.Sprintf("%s/lol/champion-mastery/v4/champion-masteries/by-puuid/%s", c.platformURL(region), url.PathEscape(puuid))
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("champion masteries: %w", err)
	}
	return out, nil
}

// PlayerStats returns the summoner, ranked entries, up to five recent
// matches and champion masteries. Without an API key the result is mock
// data seeded by the summoner name.
func (c *Client) PlayerStats(ctx context.Context, region, summonerName string) (*models.PlayerStats, error) {
	if region == "" {
		region = c.region
	}
	region = strings.ToLower(region)
	if err := checkRegion(region); err != nil {
		return nil, err
	}

	if !c.Configured() {
		return MockPlayerStats(summonerName, region), nil
	}

	summoner, err := c.Summoner(ctx, region, summonerName)
	if err != nil {
		return nil, err
	}

	var (
		entries   []models.LeagueEntry
		ids       []string
		masteries []models.ChampionMastery
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		entries, err = c.leagueEntries(gctx, region, summoner.ID)
		return err
	})
	g.Go(func() (err error) {
		ids, err = c.matchIDs(gctx, region, summoner.PUUID, recentMatchCount)
		return err
	})
	g.Go(func() (err error) {
		masteries, err = c.masteries(gctx, region, summoner.PUUID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(ids) > recentMatchCount {
		ids = ids[:recentMatchCount]
	}
	matches := make([]models.Match, len(ids))
	g, gctx = errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			m, err := c.match(gctx, region, id)
			if err != nil {
				return err
			}
			matches[i] = *m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []models.LeagueEntry{}
	}
	if masteries == nil {
		masteries = []models.ChampionMastery{}
	}

	return &models.PlayerStats{
		Summoner:          *summoner,
		LeagueEntries:     entries,
		RecentMatches:     matches,
		ChampionMasteries: masteries,
		Region:            region,
		Source:            models.SourceRiot,
	}, nil
}

// VerifySummoner confirms the summoner exists and returns an account id to
// store with the connection. Without an API key a mock id is issued.
func (c *Client) VerifySummoner(ctx context.Context, region, summonerName string) (string, error) {
	if err := ValidateSummoner(region, summonerName); err != nil {
		return "", err
	}
	if !c.Configured() {
		b := make([]byte, 8)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		return fmt.Sprintf("MOCK_%x", b), nil
	}

	summoner, err := c.Summoner(ctx, strings.ToLower(region), summonerName)
	if err != nil {
		return "", err
	}
	if summoner.PUUID != "" {
		return summoner.PUUID, nil
	}
	return summoner.AccountID, nil
}
