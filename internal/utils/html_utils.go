package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent hardens sanitized comment HTML: images load lazily without a referrer and
// links are marked as user-generated so they pass no ranking to the target.
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		s.SetAttr("decoding", "async")
	})

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("rel", "nofollow ugc noopener noreferrer")
		if href, _ := s.Attr("href"); strings.HasPrefix(href, "http") {
			s.SetAttr("target", "_blank")
		}
	})

	// goquery wraps fragments in a full document; only the body content is wanted
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}
