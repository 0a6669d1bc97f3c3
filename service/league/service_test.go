package league

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/playstats/playstats/config"
	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStats struct {
	err       error
	gotRegion string
	gotName   string
}

func (f *fakeStats) PlayerStats(_ context.Context, region, name string) (*models.PlayerStats, error) {
	f.gotRegion, f.gotName = region, name
	if f.err != nil {
		return nil, f.err
	}
	return &models.PlayerStats{Summoner: models.Summoner{Name: name}, Region: region, Source: models.SourceRiot}, nil
}

func (f *fakeStats) DefaultRegion() string { return "euw1" }

func TestHandleStats(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		fake := &fakeStats{}
		svc := NewLeagueService(fake, zap.NewNop())

		rec := httptest.NewRecorder()
		svc.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/api/league/stats?summoner=Caps&region=euw1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.PlayerStats
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, models.SourceRiot, got.Source)
		assert.Equal(t, "Caps", got.Summoner.Name)
		assert.Empty(t, got.Error)
	})

	t.Run("defaults", func(t *testing.T) {
		fake := &fakeStats{}
		svc := NewLeagueService(fake, zap.NewNop())

		svc.HandleStats(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/league/stats", nil))
		assert.Equal(t, "euw1", fake.gotRegion)
		assert.Equal(t, defaultSummoner, fake.gotName)
	})

	t.Run("falls back to mock data", func(t *testing.T) {
		svc := NewLeagueService(&fakeStats{err: apperr.ErrUpstreamNotFound}, zap.NewNop())

		rec := httptest.NewRecorder()
		svc.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/api/league/stats?summoner=Nobody", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.PlayerStats
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, models.SourceDemo, got.Source)
		assert.Equal(t, "not_found", got.Error)
		assert.Equal(t, "Nobody", got.Summoner.Name)
	})
}

func TestHandleOverview(t *testing.T) {
	svc := NewLeagueService(&fakeStats{}, zap.NewNop())

	rec := httptest.NewRecorder()
	svc.HandleOverview(rec, httptest.NewRequest(http.MethodGet, "/api/league?type=role-performance", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var points []models.ChartPoint
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&points))
	assert.Len(t, points, 5)

	rec = httptest.NewRecorder()
	svc.HandleOverview(rec, httptest.NewRequest(http.MethodGet, "/api/league?type=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid data type"}`, rec.Body.String())
}

// hostRecorder answers every request with 404 and remembers where it went.
type hostRecorder struct {
	mu    sync.Mutex
	hosts []string
	keys  []string
}

func (h *hostRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	h.mu.Lock()
	h.hosts = append(h.hosts, r.URL.Host)
	h.keys = append(h.keys, r.Header.Get("X-Riot-Token"))
	h.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("{}")),
		Request:    r,
	}, nil
}

func newRecordedService(t *testing.T) (*LeagueService, *hostRecorder) {
	t.Helper()
	rec := &hostRecorder{}
	c := NewClient(config.RiotConfig{APIKey: "RGAPI-secret", Region: "euw1", RequestsPerSecond: 100}, zap.NewNop())
	c.httpClient = &http.Client{Transport: rec}
	return NewLeagueService(c, zap.NewNop()), rec
}

func TestStatsRejectsUnknownRegion(t *testing.T) {
	for _, region := range []string{"attacker.example#", "evil.com/x?", "euw1.attacker", "127.0.0.1:80#"} {
		t.Run(region, func(t *testing.T) {
			svc, rec := newRecordedService(t)

			stats := svc.Stats(t.Context(), region, "Faker")

			assert.Empty(t, rec.hosts)
			assert.Empty(t, rec.keys)
			assert.Equal(t, models.SourceDemo, stats.Source)
			assert.Equal(t, "invalid_input", stats.Error)
			assert.Equal(t, "euw1", stats.Region)
		})
	}
}

func TestHandleStatsUnknownRegion(t *testing.T) {
	svc, rec := newRecordedService(t)

	w := httptest.NewRecorder()
	svc.HandleStats(w, httptest.NewRequest(http.MethodGet, "/api/league/stats?summoner=Faker&region=attacker.example%23", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got models.PlayerStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "invalid_input", got.Error)
	assert.Empty(t, rec.hosts)
}

func TestStatsKnownRegionStaysOnRiotHosts(t *testing.T) {
	svc, rec := newRecordedService(t)

	stats := svc.Stats(t.Context(), "KR", "Faker")

	assert.Equal(t, "not_found", stats.Error)
	require.NotEmpty(t, rec.hosts)
	for _, host := range rec.hosts {
		assert.Equal(t, "kr.api.riotgames.com", host)
	}
}
