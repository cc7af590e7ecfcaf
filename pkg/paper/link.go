package paper

import (
	"path"
	"regexp"
	"strings"
)

// AssetPrefix marks a link that resolves against the blob store.
const AssetPrefix = "assets/"

var (
	youTubePattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)
	pdfPattern     = regexp.MustCompile(`(?i)\.pdf(\?.*)?$`)
)

// IsAssetLink reports whether link points into the blob store.
func IsAssetLink(link string) bool {
	return strings.HasPrefix(link, AssetPrefix) && len(link) > len(AssetPrefix)
}

// AssetName returns the blob name for an asset link, or "" for external links.
func AssetName(link string) string {
	if !IsAssetLink(link) {
		return ""
	}
	return strings.TrimPrefix(link, AssetPrefix)
}

// AssetLink builds the link that references the named blob.
func AssetLink(name string) string {
	return AssetPrefix + name
}

// YouTubeID extracts the 11 character video id from a YouTube URL.
func YouTubeID(link string) (string, bool) {
	m := youTubePattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsPDFLink reports whether link looks like it points at a PDF document.
func IsPDFLink(link string) bool {
	return pdfPattern.MatchString(link) || strings.Contains(strings.ToLower(link), "pdf")
}

// InferType guesses a paper type from its link. It returns "" when the link
// is empty.
func InferType(link string) Type {
	switch {
	case link == "":
		return ""
	case IsAssetLink(link):
		return TypeFile
	case strings.EqualFold(path.Ext(link), ".pdf") && !strings.Contains(link, "://"):
		return TypeFile
	default:
		if _, ok := YouTubeID(link); ok {
			return TypeVideo
		}
		return TypeURL
	}
}
