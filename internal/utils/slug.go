package utils

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify: minuscules, toute suite de caractères non alphanumériques devient un seul `-`,
// tirets retirés aux extrémités. "Test Watch" -> "test-watch".
func Slugify(name string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
