package models

// Riot API records. Field names follow summoner-v4, league-v4, match-v5 and
// champion-mastery-v4.

type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int    `json:"summonerLevel"`
}

type LeagueEntry struct {
	LeagueID     string `json:"leagueId"`
	SummonerID   string `json:"summonerId"`
	SummonerName string `json:"summonerName"`
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	HotStreak    bool   `json:"hotStreak"`
	Veteran      bool   `json:"veteran"`
	FreshBlood   bool   `json:"freshBlood"`
	Inactive     bool   `json:"inactive"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchParticipant struct {
	PUUID                       string `json:"puuid"`
	SummonerName                string `json:"summonerName,omitempty"`
	ChampionID                  int    `json:"championId"`
	ChampionName                string `json:"championName"`
	ChampLevel                  int    `json:"champLevel"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	DoubleKills                 int    `json:"doubleKills"`
	TripleKills                 int    `json:"tripleKills"`
	QuadraKills                 int    `json:"quadraKills"`
	PentaKills                  int    `json:"pentaKills"`
	FirstBloodKill              bool   `json:"firstBloodKill"`
	GoldEarned                  int    `json:"goldEarned"`
	GoldSpent                   int    `json:"goldSpent"`
	IndividualPosition          string `json:"individualPosition"`
	TeamPosition                string `json:"teamPosition"`
	Lane                        string `json:"lane"`
	Role                        string `json:"role"`
	TeamID                      int    `json:"teamId"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	TotalDamageTaken            int    `json:"totalDamageTaken"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	VisionScore                 int    `json:"visionScore"`
	WardsPlaced                 int    `json:"wardsPlaced"`
	WardsKilled                 int    `json:"wardsKilled"`
	Win                         bool   `json:"win"`
}

type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"`
	GameDuration int                `json:"gameDuration"`
	GameID       int64              `json:"gameId"`
	GameMode     string             `json:"gameMode"`
	GameType     string             `json:"gameType"`
	GameVersion  string             `json:"gameVersion"`
	MapID        int                `json:"mapId"`
	Participants []MatchParticipant `json:"participants"`
	PlatformID   string             `json:"platformId"`
	QueueID      int                `json:"queueId"`
}

type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type ChampionMastery struct {
	PUUID                        string `json:"puuid"`
	ChampionID                   int    `json:"championId"`
	ChampionLevel                int    `json:"championLevel"`
	ChampionPoints               int    `json:"championPoints"`
	LastPlayTime                 int64  `json:"lastPlayTime"`
	ChampionPointsSinceLastLevel int    `json:"championPointsSinceLastLevel"`
	ChampionPointsUntilNextLevel int    `json:"championPointsUntilNextLevel"`
	ChestGranted                 bool   `json:"chestGranted"`
	TokensEarned                 int    `json:"tokensEarned"`
}

// PlayerStats is the /api/league/stats payload.
type PlayerStats struct {
	Summoner          Summoner          `json:"summoner"`
	LeagueEntries     []LeagueEntry     `json:"leagueEntries"`
	RecentMatches     []Match           `json:"recentMatches"`
	ChampionMasteries []ChampionMastery `json:"championMasteries"`
	Region            string            `json:"region"`
	Source            string            `json:"source"`
	Error             string            `json:"error,omitempty"`
}
