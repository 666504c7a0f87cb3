package social

import (
	"regexp"
	"strings"
)

var (
	handlePattern    = regexp.MustCompile(`@([A-Za-z0-9_.-]+)`)
	postCodePattern  = regexp.MustCompile(`(?i)/p/([A-Za-z0-9_-]+)`)
	bareCodePattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)
	videoIDPattern   = regexp.MustCompile(`/video/([0-9]+)`)
	tiktokSecUIDForm = regexp.MustCompile(`^MS4[A-Za-z0-9_-]+$`)
)

// UsernameFromURL pulls a profile handle out of an order link. An
// explicit @handle wins; otherwise the last path segment is taken.
// The result is lowercased.
func UsernameFromURL(raw string) string {
	s := strings.NewReplacer("\r", "", "\n", "").Replace(raw)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.SplitN(s, "?", 2)[0]
	s = strings.SplitN(s, "#", 2)[0]
	if m := handlePattern.FindStringSubmatch(s); m != nil {
		return strings.ToLower(m[1])
	}
	s = strings.Trim(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(strings.TrimSpace(s))
}

// PostCodeFromURL extracts an Instagram post shortcode from a link, a
// /p/<code> path, or a bare code.
func PostCodeFromURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if m := postCodePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if bareCodePattern.MatchString(s) {
		return s
	}
	s = strings.SplitN(s, "?", 2)[0]
	s = strings.SplitN(s, "#", 2)[0]
	s = strings.Trim(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if bareCodePattern.MatchString(s) {
		return s
	}
	return ""
}

// VideoIDFromURL extracts the numeric TikTok video id from a link.
func VideoIDFromURL(raw string) string {
	if m := videoIDPattern.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		return m[1]
	}
	return ""
}

// NormalizeHandle strips the @ prefix and lowercases a username.
func NormalizeHandle(raw string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "@")))
}
