package league

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/playstats/playstats/pkg/apperr"
)

// platform routing value -> regional routing value used by match-v5 and
// account-v1
var regionalRoutes = map[string]string{
	"na1":  "americas",
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"me1":  "europe",
	"kr":   "asia",
	"jp1":  "asia",
	"oc1":  "sea",
	"ph2":  "sea",
	"sg2":  "sea",
	"th2":  "sea",
	"tw2":  "sea",
	"vn2":  "sea",
}

// RegionalRoute returns the regional host prefix for a platform.
func RegionalRoute(platform string) (string, bool) {
	r, ok := regionalRoutes[strings.ToLower(platform)]
	return r, ok
}

var tagExpr = regexp.MustCompile(`^[\p{L}\p{N}]{3,5}$`)

// ValidateSummoner checks a region and a summoner name of 3 to 16
// characters, optionally followed by a #TAG.
func ValidateSummoner(region, name string) error {
	if region == "" || name == "" {
		return fmt.Errorf("%w: region and summoner name are required", apperr.ErrInvalidInput)
	}
	if _, ok := RegionalRoute(region); !ok {
		return fmt.Errorf("%w: unknown region %q", apperr.ErrInvalidInput, region)
	}

	gameName, tag, hasTag := strings.Cut(name, "#")
	if n := len([]rune(strings.TrimSpace(gameName))); n < 3 || n > 16 {
		return fmt.Errorf("%w: summoner name must be 3 to 16 characters", apperr.ErrInvalidInput)
	}
	if hasTag && !tagExpr.MatchString(tag) {
		return fmt.Errorf("%w: tag must be 3 to 5 letters or digits", apperr.ErrInvalidInput)
	}
	return nil
}
