package league

import (
	"context"
	"net/http"

	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
	"github.com/playstats/playstats/pkg/respond"
	"go.uber.org/zap"
)

const defaultSummoner = "ProGamer123"

// StatsFetcher loads a summoner's statistics.
type StatsFetcher interface {
	PlayerStats(ctx context.Context, region, summonerName string) (*models.PlayerStats, error)
	DefaultRegion() string
}

type LeagueService struct {
	stats  StatsFetcher
	logger *zap.Logger
}

func NewLeagueService(stats StatsFetcher, logger *zap.Logger) *LeagueService {
	return &LeagueService{stats: stats, logger: logger}
}

// Stats returns live statistics or, on any failure, the mock record tagged
// with the error code.
func (s *LeagueService) Stats(ctx context.Context, region, summonerName string) *models.PlayerStats {
	if summonerName == "" {
		summonerName = defaultSummoner
	}
	if region == "" {
		region = s.stats.DefaultRegion()
	}

	stats, err := s.stats.PlayerStats(ctx, region, summonerName)
	if err != nil {
		code := apperr.ErrorCode(err)
		s.logger.Warn("riot fetch failed, serving mock data",
			zap.String("summoner", summonerName), zap.String("code", code), zap.Error(err))
		if _, ok := RegionalRoute(region); !ok {
			region = s.stats.DefaultRegion()
		}
		stats = MockPlayerStats(summonerName, region)
		stats.Error = code
	}
	return stats
}

// HandleStats serves GET /api/league/stats?summoner=&region=. It always
// answers 200.
func (s *LeagueService) HandleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	respond.JSON(w, http.StatusOK, s.Stats(r.Context(), q.Get("region"), q.Get("summoner")))
}

// HandleOverview serves the fixed widgets at GET /api/league?type=.
func (s *LeagueService) HandleOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("summoner")
	if name == "" {
		name = defaultSummoner
	}

	data, err := Overview(q.Get("type"), name)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid data type")
		return
	}
	respond.JSON(w, http.StatusOK, data)
}
