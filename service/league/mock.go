package league

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
)

type champion struct {
	id   int
	name string
}

var champions = []champion{
	{157, "Yasuo"}, {64, "Lee Sin"}, {103, "Ahri"}, {412, "Thresh"}, {222, "Jinx"},
	{1, "Annie"}, {2, "Olaf"}, {3, "Galio"}, {4, "Twisted Fate"}, {5, "Xin Zhao"},
}

var (
	tiers     = []string{"IRON", "BRONZE", "SILVER", "GOLD", "PLATINUM", "EMERALD", "DIAMOND"}
	divisions = []string{"IV", "III", "II", "I"}
	positions = []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}
)

// mockEpoch anchors mock timestamps so the same name always yields the same
// record.
var mockEpoch = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func seededRand(summonerName string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(summonerName)))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// MockPlayerStats builds a plausible record with the real schema. The
// output depends only on the summoner name and region.
func MockPlayerStats(summonerName, region string) *models.PlayerStats {
	rng := seededRand(summonerName)
	puuid := fmt.Sprintf("mock-puuid-%016x", rng.Uint64())
	summonerID := fmt.Sprintf("mock-summoner-%08x", rng.Uint32())

	summoner := models.Summoner{
		ID:            summonerID,
		AccountID:     fmt.Sprintf("mock-account-%08x", rng.Uint32()),
		PUUID:         puuid,
		Name:          summonerName,
		ProfileIconID: 1 + rng.IntN(28),
		RevisionDate:  mockEpoch.UnixMilli(),
		SummonerLevel: 30 + rng.IntN(400),
	}

	wins := 20 + rng.IntN(150)
	losses := 20 + rng.IntN(150)
	entries := []models.LeagueEntry{{
		LeagueID:     fmt.Sprintf("mock-league-%04x", rng.IntN(0xffff)),
		SummonerID:   summonerID,
		SummonerName: summonerName,
		QueueType:    "RANKED_SOLO_5x5",
		Tier:         tiers[rng.IntN(len(tiers))],
		Rank:         divisions[rng.IntN(len(divisions))],
		LeaguePoints: rng.IntN(100),
		Wins:         wins,
		Losses:       losses,
		HotStreak:    rng.IntN(4) == 0,
	}}

	matches := make([]models.Match, recentMatchCount)
	for i := range matches {
		champ := champions[rng.IntN(len(champions))]
		gameID := int64(6_000_000_000 + rng.IntN(1_000_000))
		duration := 1200 + rng.IntN(1200)
		position := positions[rng.IntN(len(positions))]
		matches[i] = models.Match{
			Metadata: models.MatchMetadata{
				MatchID:      fmt.Sprintf("%s_%d", strings.ToUpper(region), gameID),
				Participants: []string{puuid},
			},
			Info: models.MatchInfo{
				GameCreation: mockEpoch.Add(-time.Duration(i*26) * time.Hour).UnixMilli(),
				GameDuration: duration,
				GameID:       gameID,
				GameMode:     "CLASSIC",
				GameType:     "MATCHED_GAME",
				GameVersion:  "14.11.589.9418",
				MapID:        11,
				PlatformID:   strings.ToUpper(region),
				QueueID:      420,
				Participants: []models.MatchParticipant{{
					PUUID:                       puuid,
					SummonerName:                summonerName,
					ChampionID:                  champ.id,
					ChampionName:                champ.name,
					ChampLevel:                  12 + rng.IntN(7),
					Kills:                       rng.IntN(16),
					Deaths:                      rng.IntN(11),
					Assists:                     rng.IntN(21),
					GoldEarned:                  7000 + rng.IntN(9000),
					IndividualPosition:          position,
					TeamPosition:                position,
					TeamID:                      100 + 100*rng.IntN(2),
					TotalDamageDealtToChampions: 8000 + rng.IntN(30000),
					TotalMinionsKilled:          40 + rng.IntN(240),
					VisionScore:                 5 + rng.IntN(60),
					Win:                         rng.IntN(2) == 0,
				}},
			},
		}
	}

	masteries := make([]models.ChampionMastery, 0, 6)
	points := 250_000 + rng.IntN(100_000)
	for i, idx := range rng.Perm(len(champions))[:6] {
		masteries = append(masteries, models.ChampionMastery{
			PUUID:          puuid,
			ChampionID:     champions[idx].id,
			ChampionLevel:  7 - min(i, 4),
			ChampionPoints: points,
			LastPlayTime:   mockEpoch.Add(-time.Duration(i) * 72 * time.Hour).UnixMilli(),
		})
		points = points * 2 / 3
	}

	return &models.PlayerStats{
		Summoner:          summoner,
		LeagueEntries:     entries,
		RecentMatches:     matches,
		ChampionMasteries: masteries,
		Region:            region,
		Source:            models.SourceDemo,
	}
}

const thumb = "/placeholder.svg?height=60&width=60"

// Overview returns one of the fixed widgets shown on the public League page.
func Overview(kind, summonerName string) (any, error) {
	switch kind {
	case "player-info":
		return models.PlayerInfo{
			SummonerName: summonerName,
			Region:       "NA",
			Level:        187,
			Rank:         "Platinum II",
			LP:           75,
			WinRate:      58,
			ProfileIcon:  "/placeholder.svg?height=100&width=100",
		}, nil
	case "top-champions":
		return []models.ChampionSummary{
			{Name: "Yasuo", Games: 152, WinRate: 62, KDA: "8.2/4.5/6.3", Image: thumb},
			{Name: "Lee Sin", Games: 98, WinRate: 57, KDA: "6.8/3.9/9.2", Image: thumb},
			{Name: "Ahri", Games: 87, WinRate: 65, KDA: "7.5/3.2/8.7", Image: thumb},
			{Name: "Thresh", Games: 76, WinRate: 59, KDA: "2.1/4.3/15.6", Image: thumb},
			{Name: "Jinx", Games: 68, WinRate: 53, KDA: "9.3/5.1/7.2", Image: thumb},
		}, nil
	case "recent-matches":
		return []models.MatchRow{
			{Champion: "Yasuo", Result: "Victory", KDA: "12/3/8", CS: 245, Duration: "32:15", Date: "Today", Image: thumb},
			{Champion: "Lee Sin", Result: "Defeat", KDA: "5/7/12", CS: 178, Duration: "28:42", Date: "Today", Image: thumb},
			{Champion: "Ahri", Result: "Victory", KDA: "9/2/11", CS: 213, Duration: "35:08", Date: "Yesterday", Image: thumb},
			{Champion: "Yasuo", Result: "Victory", KDA: "15/5/7", CS: 267, Duration: "38:21", Date: "Yesterday", Image: thumb},
			{Champion: "Thresh", Result: "Defeat", KDA: "1/6/22", CS: 45, Duration: "25:36", Date: "2 days ago", Image: thumb},
		}, nil
	case "rank-history":
		return []models.ChartPoint{
			{Name: "Jan", Value: 45}, {Name: "Feb", Value: 52}, {Name: "Mar", Value: 48},
			{Name: "Apr", Value: 61}, {Name: "May", Value: 57}, {Name: "Jun", Value: 65},
			{Name: "Jul", Value: 75},
		}, nil
	case "role-performance":
		return []models.ChartPoint{
			{Name: "Top", Value: 65}, {Name: "Jungle", Value: 80}, {Name: "Mid", Value: 90},
			{Name: "ADC", Value: 70}, {Name: "Support", Value: 60},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown league widget %q", apperr.ErrInvalidInput, kind)
	}
}
