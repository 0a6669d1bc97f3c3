package spotify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

var guffSymbols = "1234567890!@#$%^&*()-=_+[]{};\"|;'\\<>?/.,~`"

var guffWords = []string{
	"a cappella", "acoustic", "bonus", "censored", "clean", "club", "deluxe", "demo", "edit",
	"explicit", "extended", "instrumental", "live", "mono", "original", "radio", "remastered",
	"remaster", "master", "remix", "remixed", "single", "stereo", "version", "ver", "anniversary",
	"edition", "mix", "mixed",
}

// TitleCleaner strips release noise such as "- Remastered 2011" or
// "(feat. Someone)" from track titles.
type TitleCleaner struct {
	expressions []*regexp2.Regexp
	yearExpr    *regexp2.Regexp
}

func NewTitleCleaner() *TitleCleaner {
	patterns := []string{
		`(?<title>.+?)\s+(?<enclosed>\(.+\)|\[.+\])$`,
		`(?<title>.+?)\s+?(?<feat>[\[\(]?(?:feat(?:uring)?|ft)\b\.?)\s*?(?<artists>.+)\s*`,
		`(?<title>.+?)(?:\s+?[\u2010\u2012\u2013\u2014~/-])(?![^(]*\))(?<dash>.*)`,
	}

	compiled := make([]*regexp2.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp2.MustCompile(`(?i)`+pattern, 0))
	}

	return &TitleCleaner{
		expressions: compiled,
		yearExpr:    regexp2.MustCompile(`(20[0-9]{2}|19[0-9]{2})`, 0),
	}
}

// isGuff reports whether bracketed or dashed text is mostly release noise
// rather than part of the title.
func (c *TitleCleaner) isGuff(text string) bool {
	t := strings.ToLower(text)
	before := utf8.RuneCountInString(t)

	for _, word := range guffWords {
		t = strings.ReplaceAll(t, word, "")
	}
	t, _ = c.yearExpr.Replace(t, "", -1, -1)

	guff := before - utf8.RuneCountInString(t)
	letters := 0
	for _, ch := range t {
		if strings.ContainsRune(guffSymbols, ch) {
			guff++
		}
		if unicode.IsLetter(ch) {
			letters++
		}
	}
	return guff > letters
}

func balanced(text string) bool {
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}} {
		if strings.Count(text, pair[0]) != strings.Count(text, pair[1]) {
			return false
		}
	}
	return true
}

// Clean returns the cleaned title and whether anything was removed.
func (c *TitleCleaner) Clean(title string) (string, bool) {
	text := strings.TrimSpace(title)
	if !balanced(text) {
		return text, false
	}

	for _, expr := range c.expressions {
		match, _ := expr.FindStringMatch(text)
		if match == nil {
			continue
		}

		// only groups the expression defines; GroupByName is nil for the rest
		groups := make(map[string]string)
		for _, name := range expr.GetGroupNames() {
			groups[name] = strings.TrimSpace(match.GroupByName(name).String())
		}

		if enclosed := groups["enclosed"]; enclosed != "" && c.isGuff(enclosed) {
			return groups["title"], true
		}
		if groups["feat"] != "" {
			return groups["title"], true
		}
		if dash := groups["dash"]; dash != "" && c.isGuff(dash) {
			return groups["title"], true
		}
	}

	return text, false
}
