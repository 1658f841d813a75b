package youtube

import (
	"net/url"
	"strings"
)

// IsValidURL はYouTubeの動画URLとして妥当かどうかを判定
//
// 対応する形式:
//   - https://youtu.be/<id>
//   - https://www.youtube.com/watch?v=<id>
//   - https://www.youtube.com/shorts/<id>
//   - https://www.youtube.com/embed/<id>
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(parsed.Host)
	path := parsed.Path

	if host == "youtu.be" || host == "www.youtu.be" {
		return strings.Trim(path, "/") != ""
	}

	if strings.HasSuffix(host, "youtube.com") {
		if path == "/watch" {
			return parsed.Query().Has("v")
		}
		if strings.HasPrefix(path, "/shorts/") || strings.HasPrefix(path, "/embed/") {
			return true
		}
	}

	return false
}
