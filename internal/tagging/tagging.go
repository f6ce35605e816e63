// Package tagging derives type tags from bookmark URLs so collections
// can be filtered by source without user effort.
package tagging

import "regexp"

// NotePrefix marks text-snippet bookmarks that have no real URL.
const NotePrefix = "note://"

// Type tags assigned by URL pattern.
const (
	TagX         = "x"
	TagYouTube   = "youtube"
	TagLinkedIn  = "linkedin"
	TagFacebook  = "facebook"
	TagInstagram = "instagram"
	TagWebsites  = "websites"
	TagSnippets  = "snippets"
)

var socialPatterns = []struct {
	tag      string
	patterns []*regexp.Regexp
}{
	{TagX, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^https?://(www\.)?(twitter\.com|x\.com)/`),
	}},
	{TagYouTube, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^https?://(www\.)?(youtube\.com|youtu\.be)/`),
		regexp.MustCompile(`(?i)^https?://(m\.)?youtube\.com/`),
	}},
	{TagLinkedIn, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^https?://(www\.)?linkedin\.com/`),
	}},
	{TagFacebook, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^https?://(www\.)?(facebook\.com|fb\.com|fb\.watch)/`),
		regexp.MustCompile(`(?i)^https?://(m\.)?facebook\.com/`),
	}},
	{TagInstagram, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^https?://(www\.)?instagram\.com/`),
	}},
}

// DetectType returns the type tag for a URL. Text snippets are
// "snippets"; anything that matches no known source is "websites".
func DetectType(url string) string {
	if len(url) >= len(NotePrefix) && url[:len(NotePrefix)] == NotePrefix {
		return TagSnippets
	}
	for _, sp := range socialPatterns {
		for _, p := range sp.patterns {
			if p.MatchString(url) {
				return sp.tag
			}
		}
	}
	return TagWebsites
}

// EnsureTypeTag appends the URL's type tag to tags when absent.
func EnsureTypeTag(url string, tags []string) []string {
	tag := DetectType(url)
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
