// Package youtube recognises YouTube sharing URLs.
package youtube

import (
	"regexp"
	"strings"
)

var (
	// Scheme and host match in any case; paths and query keys do not.
	videoURLPattern = regexp.MustCompile(
		`^(?:(?i:https?)://)?(?i:(?:www|m|music)\.)?` +
			`(?:(?i:youtube\.com)/(?:watch/?\?(?:[^#]*&)?v=|embed/|shorts/|live/|v/)|(?i:youtube-nocookie\.com)/embed/|(?i:youtu\.be)/)` +
			`([A-Za-z0-9_-]{11})(?:[?&#/]|$)`,
	)
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ExtractVideoID returns the 11 character video id carried by a watch,
// short-link, embed or shorts URL. The second result is false for anything
// else.
func ExtractVideoID(raw string) (string, bool) {
	m := videoURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if len(m) < 2 {
		return "", false
	}

	return m[1], true
}

// IsVideoID reports whether id has the shape of a video id.
func IsVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

func WatchURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}
