package matcher

import (
	"strings"

	"golang.org/x/net/html"
)

// tokenizeHrefs walks the token stream and returns the fragment-stripped
// target of every <a href> whose value fits the URL grammar.
// The tokenizer lower-cases tag and attribute names and unescapes values.
func tokenizeHrefs(doc string) []string {
	hrefs := make([]string, 0)
	z := html.NewTokenizer(strings.NewReader(doc))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; both end the scan.
			return hrefs
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			if href, ok := hrefAttr(z); ok {
				if m := hrefValuePattern.FindStringSubmatch(href); m != nil {
					hrefs = append(hrefs, m[valueTargetIndex])
				}
			}
		}
	}
}

// hrefAttr returns the first href attribute of the current tag.
func hrefAttr(z *html.Tokenizer) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}
