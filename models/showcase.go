package models

// Showcase widget rows. These are the flattened shapes the portfolio pages
// chart; they are not Spotify or Riot API objects.

type ShowcaseTrack struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AlbumCover string `json:"albumCover"`
	Duration   string `json:"duration"`
	PlayCount  int    `json:"playCount,omitempty"`
	PlayedAt   string `json:"playedAt,omitempty"`
}

type ShowcaseArtist struct {
	Name       string   `json:"name"`
	PlayCount  int      `json:"playCount"`
	Image      string   `json:"image"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

// ChartPoint is a single labelled value, used for genre pies, monthly
// listening hours, LP history and role radar charts.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type PlayerInfo struct {
	SummonerName string `json:"summonerName"`
	Region       string `json:"region"`
	Level        int    `json:"level"`
	Rank         string `json:"rank"`
	LP           int    `json:"lp"`
	WinRate      int    `json:"winRate"`
	ProfileIcon  string `json:"profileIcon"`
}

type ChampionSummary struct {
	Name    string `json:"name"`
	Games   int    `json:"games"`
	WinRate int    `json:"winRate"`
	KDA     string `json:"kda"`
	Image   string `json:"image"`
}

type MatchRow struct {
	Champion string `json:"champion"`
	Result   string `json:"result"`
	KDA      string `json:"kda"`
	CS       int    `json:"cs"`
	Duration string `json:"duration"`
	Date     string `json:"date"`
	Image    string `json:"image"`
}
