package metadata

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// PageMetadata is what a fetch produces: the fields that become part of
// a bookmark's embeddable content.
type PageMetadata struct {
	Title       string
	Description string
	SiteName    string
	ImageURL    string
	ContentText string

	// RawHTML is the fetched page source when the direct fetch
	// succeeded, kept for snapshot archival. Empty for render-API
	// results.
	RawHTML string
}

// ExtractMetadata pulls Open Graph, Twitter-card, and plain meta fields
// out of an HTML document, falling back across them in that order.
func ExtractMetadata(htmlContent string) PageMetadata {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return PageMetadata{}
	}

	meta := map[string]string{}
	var title string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var key, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property", "name":
						key = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if key != "" && content != "" {
					if _, seen := meta[key]; !seen {
						meta[key] = strings.TrimSpace(content)
					}
				}
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	pick := func(keys ...string) string {
		for _, k := range keys {
			if v := meta[k]; v != "" {
				return v
			}
		}
		return ""
	}

	out := PageMetadata{
		Title:       pick("og:title", "twitter:title"),
		Description: pick("og:description", "twitter:description", "description"),
		SiteName:    pick("og:site_name"),
		ImageURL:    pick("og:image", "twitter:image"),
	}
	if out.Title == "" {
		out.Title = title
	}
	return out
}

// ExtractContent converts the page HTML to markdown for the bookmark's
// content text. Conversion failures yield empty content, not an error;
// content text is an enrichment, not a requirement.
func ExtractContent(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}
	markdown, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(markdown)
}
