package models

import "time"

// Image is an artwork entry as returned by the Spotify Web API.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

type Followers struct {
	Href  *string `json:"href"`
	Total int     `json:"total"`
}

type ExplicitContent struct {
	FilterEnabled bool `json:"filter_enabled"`
	FilterLocked  bool `json:"filter_locked"`
}

// Profile is the current user's profile (GET /me).
type Profile struct {
	Country         string          `json:"country"`
	DisplayName     string          `json:"display_name"`
	Email           string          `json:"email"`
	ExplicitContent ExplicitContent `json:"explicit_content"`
	ExternalURLs    ExternalURLs    `json:"external_urls"`
	Followers       Followers       `json:"followers"`
	Href            string          `json:"href"`
	ID              string          `json:"id"`
	Images          []Image         `json:"images"`
	Product         string          `json:"product"`
	Type            string          `json:"type"`
	URI             string          `json:"uri"`
}

// SimpleArtist is the artist reference embedded in tracks and albums.
type SimpleArtist struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

type Album struct {
	AlbumType            string         `json:"album_type"`
	Artists              []SimpleArtist `json:"artists"`
	AvailableMarkets     []string       `json:"available_markets"`
	ExternalURLs         ExternalURLs   `json:"external_urls"`
	Href                 string         `json:"href"`
	ID                   string         `json:"id"`
	Images               []Image        `json:"images"`
	Name                 string         `json:"name"`
	ReleaseDate          string         `json:"release_date"`
	ReleaseDatePrecision string         `json:"release_date_precision"`
	TotalTracks          int            `json:"total_tracks"`
	Type                 string         `json:"type"`
	URI                  string         `json:"uri"`
}

type ExternalIDs struct {
	ISRC string `json:"isrc"`
}

type Track struct {
	Album            Album          `json:"album"`
	Artists          []SimpleArtist `json:"artists"`
	AvailableMarkets []string       `json:"available_markets"`
	DiscNumber       int            `json:"disc_number"`
	DurationMs       int            `json:"duration_ms"`
	Explicit         bool           `json:"explicit"`
	ExternalIDs      ExternalIDs    `json:"external_ids"`
	ExternalURLs     ExternalURLs   `json:"external_urls"`
	Href             string         `json:"href"`
	ID               string         `json:"id"`
	IsLocal          bool           `json:"is_local"`
	Name             string         `json:"name"`
	Popularity       int            `json:"popularity"`
	PreviewURL       *string        `json:"preview_url"`
	TrackNumber      int            `json:"track_number"`
	Type             string         `json:"type"`
	URI              string         `json:"uri"`
}

type Artist struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Followers    Followers    `json:"followers"`
	Genres       []string     `json:"genres"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Images       []Image      `json:"images"`
	Name         string       `json:"name"`
	Popularity   int          `json:"popularity"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

type PlaylistOwner struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
	DisplayName  string       `json:"display_name"`
}

type PlaylistTracks struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

type Playlist struct {
	Collaborative bool           `json:"collaborative"`
	Description   string         `json:"description"`
	ExternalURLs  ExternalURLs   `json:"external_urls"`
	Href          string         `json:"href"`
	ID            string         `json:"id"`
	Images        []Image        `json:"images"`
	Name          string         `json:"name"`
	Owner         PlaylistOwner  `json:"owner"`
	Public        bool           `json:"public"`
	SnapshotID    string         `json:"snapshot_id"`
	Tracks        PlaylistTracks `json:"tracks"`
	Type          string         `json:"type"`
	URI           string         `json:"uri"`
}

// Paging is the envelope Spotify wraps list responses in.
type Paging[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Limit    int     `json:"limit"`
	Next     *string `json:"next"`
	Offset   int     `json:"offset"`
	Previous *string `json:"previous"`
	Total    int     `json:"total"`
}

// PlayHistory is one entry of the recently played endpoint.
type PlayHistory struct {
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}

type RecentlyPlayed struct {
	Items []PlayHistory `json:"items"`
}

// TimeRange selects the window Spotify computes top items over.
type TimeRange struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// GenreShare is one slice of the genre breakdown.
type GenreShare struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// UserData is the dashboard payload. Source is "spotify" for live data and
// "demo" for the fallback; Error carries the code of the failure that caused
// the fallback, if any.
type UserData struct {
	Profile        *Profile     `json:"profile"`
	TopTracks      []Track      `json:"topTracks"`
	TopArtists     []Artist     `json:"topArtists"`
	RecentlyPlayed []Track      `json:"recentlyPlayed"`
	Playlists      []Playlist   `json:"playlists"`
	Genres         []GenreShare `json:"genres"`
	TimeRange      TimeRange    `json:"timeRange"`
	Source         string       `json:"source"`
	Error          string       `json:"error,omitempty"`
}

const (
	SourceSpotify = "spotify"
	SourceDemo    = "demo"
	SourceRiot    = "riot"
)
