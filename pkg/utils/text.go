package utils

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// FilenameFromURL returns the final path segment of a URL, which is the
// name an article photo is stored under.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// ResolveURL resolves a possibly relative reference against the page URL,
// the way the browser resolves an img src before fetching it. Unparseable
// input is returned as given.
func ResolveURL(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// SanitizeFilename removes characters that are invalid in filenames.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "_")

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, filename)

	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}

	return cleaned
}
