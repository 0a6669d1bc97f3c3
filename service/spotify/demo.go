package spotify

import (
	"fmt"

	"github.com/playstats/playstats/models"
	"github.com/playstats/playstats/pkg/apperr"
)

const placeholderImage = "/placeholder.svg?height=300&width=300"

func demoArtist(id, name string) models.SimpleArtist {
	return models.SimpleArtist{
		ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/artist/" + id},
		Href:         "https://api.spotify.com/v1/artists/" + id,
		ID:           id,
		Name:         name,
		Type:         "artist",
		URI:          "spotify:artist:" + id,
	}
}

func demoTrack(n int, name string, artist models.SimpleArtist, album string, durationMs, popularity int) models.Track {
	id := fmt.Sprintf("track%d", n)
	albumID := fmt.Sprintf("album%d", n)
	return models.Track{
		Album: models.Album{
			AlbumType:            "album",
			Artists:              []models.SimpleArtist{artist},
			AvailableMarkets:     []string{"US"},
			ExternalURLs:         models.ExternalURLs{Spotify: "https://open.spotify.com/album/" + albumID},
			Href:                 "https://api.spotify.com/v1/albums/" + albumID,
			ID:                   albumID,
			Images:               []models.Image{{URL: placeholderImage, Height: 300, Width: 300}},
			Name:                 album,
			ReleaseDate:          "2023-01-01",
			ReleaseDatePrecision: "day",
			TotalTracks:          12,
			Type:                 "album",
			URI:                  "spotify:album:" + albumID,
		},
		Artists:          []models.SimpleArtist{artist},
		AvailableMarkets: []string{"US"},
		DiscNumber:       1,
		DurationMs:       durationMs,
		ExternalIDs:      models.ExternalIDs{ISRC: fmt.Sprintf("DEMO%05d", n)},
		ExternalURLs:     models.ExternalURLs{Spotify: "https://open.spotify.com/track/" + id},
		Href:             "https://api.spotify.com/v1/tracks/" + id,
		ID:               id,
		Name:             name,
		Popularity:       popularity,
		TrackNumber:      1,
		Type:             "track",
		URI:              "spotify:track:" + id,
	}
}

func demoFullArtist(id, name string, followers, popularity int, genres ...string) models.Artist {
	return models.Artist{
		ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/artist/" + id},
		Followers:    models.Followers{Total: followers},
		Genres:       genres,
		Href:         "https://api.spotify.com/v1/artists/" + id,
		ID:           id,
		Images:       []models.Image{{URL: placeholderImage, Height: 300, Width: 300}},
		Name:         name,
		Popularity:   popularity,
		Type:         "artist",
		URI:          "spotify:artist:" + id,
	}
}

// DemoUserData is the fixed payload served whenever live data is
// unavailable. errCode, when set, names the failure that caused the
// fallback. Each call returns a fresh value.
func DemoUserData(tr models.TimeRange, errCode string) *models.UserData {
	weeknd := demoArtist("artist1", "The Weeknd")
	dua := demoArtist("artist2", "Dua Lipa")
	olivia := demoArtist("artist3", "Olivia Rodrigo")

	artists := []models.Artist{
		demoFullArtist("artist1", "The Weeknd", 1000000, 95, "pop", "r&b"),
		demoFullArtist("artist2", "Dua Lipa", 800000, 92, "pop", "dance pop"),
		demoFullArtist("artist3", "Olivia Rodrigo", 600000, 90, "pop", "alt pop"),
	}

	return &models.UserData{
		Profile: &models.Profile{
			Country:      "US",
			DisplayName:  "Demo User",
			Email:        "demo@example.com",
			ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/user/demo"},
			Followers:    models.Followers{Total: 42},
			Href:         "https://api.spotify.com/v1/users/demo",
			ID:           "demo",
			Images:       []models.Image{{URL: placeholderImage, Height: 300, Width: 300}},
			Product:      "premium",
			Type:         "user",
			URI:          "spotify:user:demo",
		},
		TopTracks: []models.Track{
			demoTrack(1, "Blinding Lights", weeknd, "After Hours", 200000, 90),
			demoTrack(2, "Levitating", dua, "Future Nostalgia", 203000, 85),
			demoTrack(3, "Good 4 U", olivia, "SOUR", 178000, 84),
		},
		TopArtists: artists,
		RecentlyPlayed: []models.Track{
			demoTrack(2, "Levitating", dua, "Future Nostalgia", 203000, 85),
			demoTrack(1, "Blinding Lights", weeknd, "After Hours", 200000, 90),
		},
		Playlists: []models.Playlist{{
			Description:  "Sample playlist description",
			ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/playlist/demo"},
			Href:         "https://api.spotify.com/v1/playlists/demo",
			ID:           "playlist1",
			Images:       []models.Image{{URL: placeholderImage, Height: 300, Width: 300}},
			Name:         "Playlist 1",
			Owner: models.PlaylistOwner{
				ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/user/demo"},
				Href:         "https://api.spotify.com/v1/users/demo",
				ID:           "demo",
				Type:         "user",
				URI:          "spotify:user:demo",
				DisplayName:  "Demo User",
			},
			Public:     true,
			SnapshotID: "demo123",
			Tracks:     models.PlaylistTracks{Href: "https://api.spotify.com/v1/playlists/demo/tracks", Total: 25},
			Type:       "playlist",
			URI:        "spotify:playlist:demo",
		}},
		Genres:    GenreBreakdown(artists),
		TimeRange: tr,
		Source:    models.SourceDemo,
		Error:     errCode,
	}
}

const cover = "/placeholder.svg?height=60&width=60"

// Showcase returns one of the fixed widgets shown on the public Spotify page.
func Showcase(kind string) (any, error) {
	switch kind {
	case "top-tracks":
		return []models.ShowcaseTrack{
			{Name: "Blinding Lights", Artist: "The Weeknd", PlayCount: 87, AlbumCover: cover, Duration: "3:20", Album: "After Hours"},
			{Name: "Save Your Tears", Artist: "The Weeknd", PlayCount: 76, AlbumCover: cover, Duration: "3:35", Album: "After Hours"},
			{Name: "Levitating", Artist: "Dua Lipa", PlayCount: 65, AlbumCover: cover, Duration: "3:23", Album: "Future Nostalgia"},
			{Name: "Stay", Artist: "The Kid LAROI, Justin Bieber", PlayCount: 58, AlbumCover: cover, Duration: "2:21", Album: "F*CK LOVE 3: OVER YOU"},
			{Name: "Good 4 U", Artist: "Olivia Rodrigo", PlayCount: 52, AlbumCover: cover, Duration: "2:58", Album: "SOUR"},
		}, nil
	case "top-artists":
		return []models.ShowcaseArtist{
			{Name: "The Weeknd", PlayCount: 163, Image: cover, Genres: []string{"Pop", "R&B"}, Popularity: 95},
			{Name: "Dua Lipa", PlayCount: 142, Image: cover, Genres: []string{"Pop", "Dance"}, Popularity: 92},
			{Name: "Taylor Swift", PlayCount: 128, Image: cover, Genres: []string{"Pop", "Country Pop"}, Popularity: 97},
			{Name: "Drake", PlayCount: 115, Image: cover, Genres: []string{"Hip Hop", "Rap"}, Popularity: 94},
			{Name: "Billie Eilish", PlayCount: 97, Image: cover, Genres: []string{"Pop", "Alternative"}, Popularity: 90},
		}, nil
	case "recently-played":
		return []models.ShowcaseTrack{
			{Name: "As It Was", Artist: "Harry Styles", PlayedAt: "Today, 10:23 AM", AlbumCover: cover, Album: "Harry's House", Duration: "2:47"},
			{Name: "Running Up That Hill", Artist: "Kate Bush", PlayedAt: "Today, 9:45 AM", AlbumCover: cover, Album: "Hounds of Love", Duration: "4:58"},
			{Name: "Heat Waves", Artist: "Glass Animals", PlayedAt: "Yesterday, 8:30 PM", AlbumCover: cover, Album: "Dreamland", Duration: "3:59"},
			{Name: "Shivers", Artist: "Ed Sheeran", PlayedAt: "Yesterday, 7:15 PM", AlbumCover: cover, Album: "=", Duration: "3:27"},
			{Name: "Enemy", Artist: "Imagine Dragons", PlayedAt: "Yesterday, 6:00 PM", AlbumCover: cover, Album: "Mercury - Act 1", Duration: "2:53"},
		}, nil
	case "genres":
		return []models.ChartPoint{
			{Name: "Pop", Value: 45},
			{Name: "Hip Hop", Value: 25},
			{Name: "Rock", Value: 15},
			{Name: "Electronic", Value: 10},
			{Name: "Other", Value: 5},
		}, nil
	case "listening-history":
		return []models.ChartPoint{
			{Name: "Jan", Value: 45},
			{Name: "Feb", Value: 52},
			{Name: "Mar", Value: 48},
			{Name: "Apr", Value: 61},
			{Name: "May", Value: 57},
			{Name: "Jun", Value: 65},
			{Name: "Jul", Value: 72},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown spotify widget %q", apperr.ErrInvalidInput, kind)
	}
}
