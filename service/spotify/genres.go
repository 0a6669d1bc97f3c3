package spotify

import (
	"math"
	"sort"

	"github.com/playstats/playstats/models"
)

const topGenres = 5

// GenreBreakdown counts genres across the given artists and returns the five
// most common plus an "Other" bucket for the rest.
func GenreBreakdown(artists []models.Artist) []models.GenreShare {
	counts := map[string]int{}
	total := 0
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			counts[genre]++
			total++
		}
	}
	if total == 0 {
		return []models.GenreShare{}
	}

	shares := make([]models.GenreShare, 0, len(counts))
	for name, count := range counts {
		shares = append(shares, models.GenreShare{Name: name, Count: count})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Name < shares[j].Name
	})

	if len(shares) > topGenres {
		other := models.GenreShare{Name: "Other"}
		for _, s := range shares[topGenres:] {
			other.Count += s.Count
		}
		shares = append(shares[:topGenres], other)
	}

	for i := range shares {
		shares[i].Percentage = int(math.Round(float64(shares[i].Count) * 100 / float64(total)))
	}
	return shares
}
