package ingest

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Normalizer turns raw product HTML into plain markdown-ish text the chunker
// can split on headings and paragraph breaks. It never fails: malformed
// markup degrades to the trimmed input.
type Normalizer struct {
	conv *md.Converter
}

// noiseSelector matches elements that carry no semantic product content.
// div[class*=key-alt] is the shop's keyword-stuffing block.
const noiseSelector = "iframe, form, img, div[class*=key-alt]"

func NewNormalizer() *Normalizer {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &Normalizer{conv: conv}
}

// Normalize strips noise elements, converts <br> to newlines, decodes
// entities and renders the remaining structure as markdown.
func (n *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find("br").ReplaceWithHtml("\n")

	return strings.TrimSpace(n.conv.Convert(doc.Selection))
}
