package models

import "time"

// User represents a user of the application
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	SpotifyConnected   bool      `json:"spotifyConnected"`
	LeagueConnected    bool      `json:"leagueConnected"`
	LeagueRegion       *string   `json:"leagueRegion,omitempty"` // nil until a summoner is linked
	LeagueSummonerName *string   `json:"leagueSummonerName,omitempty"`
	LeagueAccountID    *string   `json:"leagueAccountId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
