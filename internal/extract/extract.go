package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the structured view of a receipt page: its cleaned body text and
// the label/value pairs scanned from its tables.
type Document struct {
	Title string
	// Text is the whole body as a single cleaned line.
	Text string
	// Pairs holds every table pair before junk filtering.
	Pairs *Pairs
}

// stripped are removed from a cell before its text is read: links, buttons,
// icons and embedded script/style.
const stripped = "a, button, i, svg, img, script, style, noscript, template"

// FromHTML parses input once and derives both the body text and the raw pairs.
// The tree is never mutated, so the body text still carries link labels that
// the pair scan drops.
func FromHTML(input []byte) (Document, error) {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return Document{}, err
	}
	doc := goquery.NewDocumentFromNode(node)

	var text string
	if body := findFirst(node, "body"); body != nil {
		text = nodeText(body)
	}
	return Document{
		Title: CleanText(doc.Find("head title").First().Text()),
		Text:  text,
		Pairs: tablePairs(doc),
	}, nil
}

// tablePairs scans every row's direct th/td cells and pairs them up
// consecutively. A trailing odd cell is dropped, rows with fewer than two cells
// are skipped, and the first value seen for a label wins.
func tablePairs(doc *goquery.Document) *Pairs {
	out := &Pairs{}
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() < 2 {
			return
		}
		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, c *goquery.Selection) {
			texts = append(texts, cellText(c))
		})
		for i := 0; i+1 < len(texts); i += 2 {
			label, value := texts[i], texts[i+1]
			if label == "" || value == "" {
				continue
			}
			out.Set(label, value)
		}
	})
	return out
}

func cellText(c *goquery.Selection) string {
	clone := c.Clone()
	clone.Find(stripped).Remove()
	var b strings.Builder
	for _, n := range clone.Nodes {
		collectText(&b, n)
	}
	return CleanText(b.String())
}

// nodeText renders n as one cleaned line.
func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)
	return CleanText(b.String())
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

// collectText writes the text under n, emitting a separator around block and
// table elements so adjacent cells never fuse into one word.
func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template", "iframe", "head":
			return
		case "br", "hr":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if n.Type == html.ElementNode && isBlock(n.Data) {
		b.WriteString("\n")
	}
}

func isBlock(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "section", "article", "main", "header", "footer",
		"h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol",
		"table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption":
		return true
	}
	return false
}
