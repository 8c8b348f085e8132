package crawl

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Metadata is everything the crawler extracts from one fetched page.
type Metadata struct {
	Title       string
	Description string
	Icon        string
	Links       []string
	Text        string
}

// HTMLExtractor turns a fetched page body into Metadata. The default
// implementation is built on golang.org/x/net/html, the low-level HTML
// tokenizer the ecosystem reaches for when a full parser like goquery is
// not already part of the dependency graph.
type HTMLExtractor interface {
	Extract(pageURL *url.URL, body []byte) (Metadata, error)
}

// descriptionExtractLen is how much of the visible text is used as the
// description fallback when no <meta name="description"> is present,
// matching the original crawler's 400-character truncated-extract variant.
const descriptionExtractLen = 400

// DefaultHTMLExtractor is the net/html-based HTMLExtractor used by the
// crawler CLI.
type DefaultHTMLExtractor struct{}

func (DefaultHTMLExtractor) Extract(pageURL *url.URL, body []byte) (Metadata, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return Metadata{}, err
	}

	var (
		title       string
		description string
		hasMetaDesc bool
		iconHref    string
		links       []string
		seenLinks   = make(map[string]bool)
		textBuilder strings.Builder
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				if attr(n, "name") == "description" {
					description = strings.TrimSpace(attr(n, "content"))
					hasMetaDesc = true
				}
			case "link":
				if relIsIcon(attr(n, "rel")) && iconHref == "" {
					iconHref = attr(n, "href")
				}
			case "a":
				if href := attr(n, "href"); href != "" {
					if resolved := resolveLink(pageURL, href); resolved != "" && !seenLinks[resolved] {
						seenLinks[resolved] = true
						links = append(links, resolved)
					}
				}
			case "script", "style":
				return // don't descend into non-visible content
			}
		}
		if n.Type == html.TextNode {
			textBuilder.WriteString(n.Data)
			textBuilder.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.TrimSpace(textBuilder.String())

	if title == "" {
		title = pageURL.String()
	}
	if !hasMetaDesc {
		description = truncate(text, descriptionExtractLen) + "..."
	}
	if iconHref == "" {
		iconHref = "/favicon.ico"
	}
	icon := resolveLink(pageURL, iconHref)

	return Metadata{
		Title:       title,
		Description: description,
		Icon:        icon,
		Links:       links,
		Text:        text,
	}, nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func relIsIcon(rel string) bool {
	for _, r := range strings.Fields(rel) {
		if strings.EqualFold(r, "icon") || strings.EqualFold(r, "shortcut") {
			return true
		}
	}
	return false
}

// resolveLink resolves href against base and strips any fragment, matching
// the original crawler's urljoin + urldefrag pair. It returns "" for a
// link it cannot resolve.
func resolveLink(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
