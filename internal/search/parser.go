package search

import (
	"io"
	"net/url"
	"strings"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseResults walks the DuckDuckGo HTML result page. A "result__a" anchor
// starts a hit; the following "result__snippet" element fills its snippet.
func parseResults(r io.Reader) ([]models.SearchHit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var hits []models.SearchHit
	var current *models.SearchHit

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.DataAtom == atom.A && hasClass(n, "result__a"):
				if current != nil {
					hits = appendHit(hits, *current)
				}
				current = &models.SearchHit{
					Title: nodeText(n),
					Link:  unwrapLink(attr(n, "href")),
				}
				return
			case hasClass(n, "result__snippet"):
				if current != nil {
					current.Snippet = nodeText(n)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if current != nil {
		hits = appendHit(hits, *current)
	}
	return hits, nil
}

func appendHit(hits []models.SearchHit, hit models.SearchHit) []models.SearchHit {
	// Sponsored results redirect through y.js.
	if hit.Link == "" || strings.Contains(hit.Link, "duckduckgo.com/y.js") {
		return hits
	}
	return append(hits, hit)
}

// unwrapLink turns "//duckduckgo.com/l/?uddg=<escaped>" redirects into the target URL.
func unwrapLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
