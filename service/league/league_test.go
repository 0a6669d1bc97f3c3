package league

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/playstats/playstats/config"
	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRiot serves the summoner, league, match and mastery endpoints for a
// single player. failPath answers with the given status instead.
func fakeRiot(t *testing.T, failPath string, failStatus int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			if r.Header.Get("X-Riot-Token") != "RGAPI-test" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if failPath != "" && strings.HasPrefix(r.URL.Path, failPath) {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(failStatus)
				return
			}
			fn(w, r)
		})
	}

	summoner := models.Summoner{ID: "sum-1", PUUID: "puuid-1", Name: "Faker", SummonerLevel: 500}

	handle("GET /lol/summoner/v4/summoners/by-name/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "Faker" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, summoner)
	})
	handle("GET /riot/account/v1/accounts/by-riot-id/{name}/{tag}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, riotAccount{PUUID: "puuid-1", GameName: r.PathValue("name"), TagLine: r.PathValue("tag")})
	})
	handle("GET /lol/summoner/v4/summoners/by-puuid/{puuid}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "puuid-1", r.PathValue("puuid"))
		writeJSON(w, models.Summoner{ID: "sum-1", PUUID: "puuid-1"})
	})
	handle("GET /lol/league/v4/entries/by-summoner/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.LeagueEntry{{QueueType: "RANKED_SOLO_5x5", Tier: "CHALLENGER", Rank: "I"}})
	})
	handle("GET /lol/match/v5/matches/by-puuid/{puuid}/ids", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		writeJSON(w, []string{"KR_1", "KR_2", "KR_3", "KR_4", "KR_5", "KR_6"})
	})
	handle("GET /lol/match/v5/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Match{Metadata: models.MatchMetadata{MatchID: r.PathValue("id")}})
	})
	handle("GET /lol/champion-mastery/v4/champion-masteries/by-puuid/{puuid}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.ChampionMastery{{ChampionID: 103, ChampionLevel: 7}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(baseURL, apiKey string) *Client {
	return NewClient(config.RiotConfig{
		APIKey:            apiKey,
		Region:            "KR",
		BaseURL:           baseURL,
		RequestsPerSecond: 100,
	}, zap.NewNop())
}

func TestPlayerStats(t *testing.T) {
	srv, _ := fakeRiot(t, "", 0)
	c := newTestClient(srv.URL, "RGAPI-test")

	stats, err := c.PlayerStats(t.Context(), "", "Faker")
	require.NoError(t, err)

	assert.Equal(t, models.SourceRiot, stats.Source)
	assert.Equal(t, "kr", stats.Region)
	assert.Equal(t, "puuid-1", stats.Summoner.PUUID)
	require.Len(t, stats.LeagueEntries, 1)
	assert.Equal(t, "CHALLENGER", stats.LeagueEntries[0].Tier)
	require.Len(t, stats.RecentMatches, recentMatchCount)
	assert.Equal(t, "KR_1", stats.RecentMatches[0].Metadata.MatchID)
	assert.Equal(t, "KR_5", stats.RecentMatches[4].Metadata.MatchID)
	assert.Len(t, stats.ChampionMasteries, 1)
}

func TestPlayerStatsRiotID(t *testing.T) {
	srv, _ := fakeRiot(t, "", 0)
	c := newTestClient(srv.URL, "RGAPI-test")

	summoner, err := c.Summoner(t.Context(), "kr", "Hide on bush#KR1")
	require.NoError(t, err)
	assert.Equal(t, "puuid-1", summoner.PUUID)
	assert.Equal(t, "Hide on bush#KR1", summoner.Name)
}

func TestPlayerStatsErrors(t *testing.T) {
	tests := []struct {
		name     string
		summoner string
		failPath string
		status   int
		want     error
	}{
		{"unknown summoner", "Nobody", "", 0, apperr.ErrUpstreamNotFound},
		{"rate limited", "Faker", "/lol/league", http.StatusTooManyRequests, apperr.ErrUpstreamRateLimited},
		{"match failure", "Faker", "/lol/match/v5/matches/KR_3", http.StatusInternalServerError, apperr.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeRiot(t, tt.failPath, tt.status)
			_, err := newTestClient(srv.URL, "RGAPI-test").PlayerStats(t.Context(), "kr", tt.summoner)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPlayerStatsWithoutKey(t *testing.T) {
	srv, calls := fakeRiot(t, "", 0)
	c := newTestClient(srv.URL, "")

	stats, err := c.PlayerStats(t.Context(), "euw1", "Faker")
	require.NoError(t, err)
	assert.Equal(t, models.SourceDemo, stats.Source)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestMockPlayerStats(t *testing.T) {
	a := MockPlayerStats("Faker", "kr")
	b := MockPlayerStats("Faker", "kr")
	c := MockPlayerStats("Caps", "kr")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Summoner.PUUID, c.Summoner.PUUID)

	assert.Equal(t, "Faker", a.Summoner.Name)
	assert.Equal(t, models.SourceDemo, a.Source)
	require.Len(t, a.LeagueEntries, 1)
	assert.Len(t, a.RecentMatches, recentMatchCount)
	assert.NotEmpty(t, a.ChampionMasteries)
	for _, m := range a.RecentMatches {
		require.Len(t, m.Info.Participants, 1)
		assert.Equal(t, a.Summoner.PUUID, m.Info.Participants[0].PUUID)
		assert.True(t, strings.HasPrefix(m.Metadata.MatchID, "KR_"))
	}
}

func TestOverview(t *testing.T) {
	for _, kind := range []string{"player-info", "top-champions", "recent-matches", "rank-history", "role-performance"} {
		data, err := Overview(kind, "ProGamer123")
		require.NoError(t, err, kind)
		assert.NotNil(t, data, kind)
	}

	info, err := Overview("player-info", "Someone")
	require.NoError(t, err)
	assert.Equal(t, "Someone", info.(models.PlayerInfo).SummonerName)

	history, err := Overview("rank-history", "")
	require.NoError(t, err)
	points := history.([]models.ChartPoint)
	require.Len(t, points, 7)
	assert.Equal(t, 75, points[6].Value)

	_, err = Overview("bogus", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestValidateSummoner(t *testing.T) {
	tests := []struct {
		region, name string
		ok           bool
	}{
		{"euw1", "Faker", true},
		{"NA1", "Doublelift#NA1", true},
		{"kr", "Hide on bush#KR1", true},
		{"", "Faker", false},
		{"mars1", "Faker", false},
		{"euw1", "ab", false},
		{"euw1", "this name is way too long", false},
		{"euw1", "Faker#x", false},
		{"euw1", "Faker#toolong", false},
	}

	for _, tt := range tests {
		err := ValidateSummoner(tt.region, tt.name)
		if tt.ok {
			assert.NoError(t, err, "%s/%s", tt.region, tt.name)
		} else {
			assert.ErrorIs(t, err, apperr.ErrInvalidInput, "%s/%s", tt.region, tt.name)
		}
	}
}

func TestVerifySummoner(t *testing.T) {
	t.Run("mock id without key", func(t *testing.T) {
		id, err := newTestClient("", "").VerifySummoner(t.Context(), "euw1", "Faker")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "MOCK_"))
	})

	t.Run("puuid with key", func(t *testing.T) {
		srv, _ := fakeRiot(t, "", 0)
		id, err := newTestClient(srv.URL, "RGAPI-test").VerifySummoner(t.Context(), "kr", "Faker")
		require.NoError(t, err)
		assert.Equal(t, "puuid-1", id)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := newTestClient("", "").VerifySummoner(t.Context(), "euw1", "x")
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})
}

func TestClientRejectsUnknownRegion(t *testing.T) {
	srv, calls := fakeRiot(t, "", 0)
	c := newTestClient(srv.URL, "RGAPI-test")

	_, err := c.PlayerStats(t.Context(), "attacker.example#", "Faker")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = c.Summoner(t.Context(), "nowhere", "Faker")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = newTestClient("", "").PlayerStats(t.Context(), "evil.com/", "Faker")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Zero(t, atomic.LoadInt32(calls))

	assert.Equal(t, "euw1", NewClient(config.RiotConfig{Region: "evil.example"}, zap.NewNop()).DefaultRegion())
}

func TestRegionalRoute(t *testing.T) {
	route, ok := RegionalRoute("EUW1")
	assert.True(t, ok)
	assert.Equal(t, "europe", route)

	c := newTestClient("", "key")
	assert.Equal(t, "https://kr.api.riotgames.com", c.platformURL("kr"))
	assert.Equal(t, "https://asia.api.riotgames.com", c.regionalURL("kr"))
}
