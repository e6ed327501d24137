package search

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanSnippet strips markup from a provider snippet, decodes entities and
// collapses whitespace. SearXNG engines often return highlighted fragments
// like "<span class=\"highlight\">Acme</span> &amp; Co".
func CleanSnippet(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return collapseSpace(raw)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			} else if tag == "br" || tag == "p" || tag == "li" {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
