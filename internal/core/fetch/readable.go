package fetch

import (
	"net/url"
	"strings"

	"recipe-assistant/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// DefaultMaxContentChars 送往 AI 的頁面文字上限
const DefaultMaxContentChars = 100000

// Readable 取出頁面標題與主要文字，readability 失敗或為空時退回 body 純文字
func Readable(html, pageURL string, maxChars int) (title, text string) {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	html = strings.TrimSpace(html)
	if html == "" {
		return "", ""
	}

	if u, err := url.Parse(pageURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(html), u)
		if err != nil {
			common.LogDebug("Readability extraction failed", zap.String("url", pageURL), zap.Error(err))
		} else {
			title = strings.TrimSpace(article.Title)
			text = normalizeText(article.TextContent)
		}
	}

	if text == "" {
		fallbackTitle, fallbackText := bodyText(html)
		if title == "" {
			title = fallbackTitle
		}
		text = fallbackText
	}

	return title, common.Truncate(text, maxChars)
}

// bodyText 移除 script、style 後的 body 文字
func bodyText(html string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}
	doc.Find("script, style, noscript, template").Remove()
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return title, normalizeText(doc.Find("body").Text())
}

// normalizeText 每行去除首尾空白並丟棄空行
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
