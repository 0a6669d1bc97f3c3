package spotify

import "github.com/playstats/playstats/models"

var TimeRanges = []models.TimeRange{
	{Name: "Last 4 Weeks", Value: "short_term", Label: "Last Month"},
	{Name: "Last 6 Months", Value: "medium_term", Label: "Last 6 Months"},
	{Name: "All Time", Value: "long_term", Label: "All Time"},
}

// ParseTimeRange maps a query value to a time range, falling back to
// medium_term.
func ParseTimeRange(value string) models.TimeRange {
	for _, tr := range TimeRanges {
		if tr.Value == value {
			return tr
		}
	}
	return TimeRanges[1]
}
