package image

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"recipe-assistant/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
)

// Source 候選圖片來源
type Source string

const (
	SourceSchema      Source = "schema"
	SourceOpenGraph   Source = "open-graph"
	SourceTwitterCard Source = "twitter-card"
	SourceInlineImg   Source = "inline-img"
)

// 各來源的基礎分數
const (
	schemaPriority  = 90
	ogPriority      = 85
	twitterPriority = 80
	inlinePriority  = 50
)

// Candidate 候選圖片
type Candidate struct {
	URL       string `json:"url"`
	Priority  int    `json:"priority"`
	Source    Source `json:"source"`
	PixelArea int    `json:"pixelArea"`
	AltText   string `json:"altText,omitempty"`
}

// Selection 評分結果，Candidates 依分數由高到低
type Selection struct {
	Candidates   []Candidate `json:"candidates"`
	ImageURL     string      `json:"imageUrl,omitempty"`
	OptimizedURL string      `json:"optimizedUrl,omitempty"`
}

// 非內容圖片的 URL 標記，命中即丟棄
var blockedTokens = []string{
	"icon", "logo", "avatar", "badge", "banner", "advert", "tracking", "pixel", "spacer", "sprite",
}

type weightedToken struct {
	token  string
	weight int
}

// 主圖標記，取最高分，只加一次
var heroTokens = []weightedToken{
	{"hero", 30}, {"recipe-image", 30}, {"recipe-card", 30}, {"wprm", 30},
	{"recipe", 25}, {"feature", 20}, {"primary", 20}, {"main", 15},
}

// 器具、聯盟連結標記，取最低分，只扣一次
var equipmentTokens = []weightedToken{
	{"amazon", -30}, {"affiliate", -30}, {"product", -25},
	{"equipment", -20}, {"tool", -20}, {"gear", -20}, {"shop", -20},
}

var foodTerms = map[string]bool{
	"food": true, "dish": true, "meal": true, "recipe": true, "soup": true, "salad": true, "cake": true,
	"bread": true, "chicken": true, "pasta": true, "beef": true, "pork": true, "fish": true, "cookie": true,
	"pie": true, "curry": true, "stew": true, "dessert": true, "breakfast": true, "dinner": true, "lunch": true,
	"potato": true, "potatoes": true, "rice": true, "noodle": true, "noodles": true, "pizza": true, "taco": true,
}

var equipmentTerms = map[string]bool{
	"pan": true, "pot": true, "skillet": true, "knife": true, "blender": true, "mixer": true, "oven": true,
	"cookware": true, "utensil": true, "processor": true, "equipment": true, "tool": true, "gadget": true,
}

var (
	schemaImagePattern = regexp.MustCompile(`"image"\s*:\s*"([^"]+)"`)
	nonWord            = regexp.MustCompile(`[^a-z0-9]+`)
)

// Score 從 HTML 擷取並排序候選圖片；pageTitle 為空時使用頁面標題
func Score(html, pageURL, pageTitle string) Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Selection{Candidates: []Candidate{}}
	}
	if pageTitle == "" {
		pageTitle = PageTitle(doc)
	}

	s := &scorer{title: strings.ToLower(strings.TrimSpace(pageTitle)), seen: make(map[string]bool)}
	s.collectSchema(doc, html)
	s.collectMeta(doc, `meta[property="og:image"], meta[property="og:image:url"], meta[property="og:image:secure_url"], meta[name="og:image"]`,
		SourceOpenGraph, ogPriority)
	s.collectMeta(doc, `meta[name="twitter:image"], meta[name="twitter:image:src"], meta[property="twitter:image"]`,
		SourceTwitterCard, twitterPriority)
	s.collectInline(doc)

	sort.SliceStable(s.candidates, func(i, j int) bool {
		return s.candidates[i].Priority > s.candidates[j].Priority
	})

	sel := Selection{Candidates: s.candidates}
	if len(sel.Candidates) > 0 {
		sel.ImageURL = ResolveURL(sel.Candidates[0].URL, pageURL)
		sel.OptimizedURL = Optimize(sel.ImageURL)
	}
	return sel
}

type scorer struct {
	title      string
	seen       map[string]bool
	candidates []Candidate
}

func (s *scorer) add(c Candidate) {
	c.URL = strings.TrimSpace(c.URL)
	if c.URL == "" || strings.HasPrefix(c.URL, "data:") || isBlocked(c.URL) || s.seen[c.URL] {
		return
	}
	s.seen[c.URL] = true
	s.candidates = append(s.candidates, c)
}

// collectSchema JSON-LD Recipe 的 image，其次 microdata，最後以正規表達式比對
func (s *scorer) collectSchema(doc *goquery.Document, html string) {
	var urls []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data interface{}
		if err := common.ParseJSON(strings.TrimSpace(sel.Text()), &data); err != nil {
			return
		}
		urls = append(urls, recipeImages(data)...)
	})

	if len(urls) == 0 {
		doc.Find(`[itemtype*="schema.org/Recipe"] [itemprop="image"]`).Each(func(_ int, sel *goquery.Selection) {
			for _, attr := range []string{"content", "src", "href"} {
				if v, ok := sel.Attr(attr); ok && v != "" {
					urls = append(urls, v)
					return
				}
			}
		})
	}

	if len(urls) == 0 {
		if m := schemaImagePattern.FindStringSubmatch(html); m != nil {
			urls = append(urls, strings.ReplaceAll(m[1], `\/`, "/"))
		}
	}

	for _, u := range urls {
		s.add(Candidate{URL: u, Priority: schemaPriority, Source: SourceSchema})
	}
}

func (s *scorer) collectMeta(doc *goquery.Document, selector string, source Source, priority int) {
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		s.add(Candidate{URL: sel.AttrOr("content", ""), Priority: priority, Source: source})
	})
}

func (s *scorer) collectInline(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := imgSource(sel)
		if src == "" {
			return
		}
		alt := strings.TrimSpace(sel.AttrOr("alt", ""))
		area := dimension(sel.AttrOr("width", "")) * dimension(sel.AttrOr("height", ""))

		tag := strings.ToLower(sel.AttrOr("class", "") + " " + sel.AttrOr("id", ""))
		link := strings.ToLower(sel.Closest("a").AttrOr("href", ""))

		priority := inlinePriority
		priority += areaScore(area)
		priority += heroScore(tag)
		priority += equipmentScore(tag + " " + strings.ToLower(src) + " " + link)
		priority += altScore(strings.ToLower(alt), s.title)
		priority += filenameScore(src)

		s.add(Candidate{URL: src, Priority: priority, Source: SourceInlineImg, PixelArea: area, AltText: alt})
	})
}

// imgSource 取 src，若為 data: 佔位圖則改用延遲載入屬性
func imgSource(sel *goquery.Selection) string {
	src := strings.TrimSpace(sel.AttrOr("src", ""))
	if src != "" && !strings.HasPrefix(src, "data:") {
		return src
	}
	for _, attr := range []string{"data-lazy-src", "data-src"} {
		if v := strings.TrimSpace(sel.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

func isBlocked(u string) bool {
	lower := strings.ToLower(u)
	for _, token := range blockedTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func dimension(v string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func areaScore(area int) int {
	switch {
	case area >= 250000:
		return 30
	case area >= 90000:
		return 15
	case area > 0 && area < 10000:
		return -10
	}
	return 0
}

func heroScore(tag string) int {
	best := 0
	for _, t := range heroTokens {
		if t.weight > best && strings.Contains(tag, t.token) {
			best = t.weight
		}
	}
	return best
}

func equipmentScore(text string) int {
	worst := 0
	for _, t := range equipmentTokens {
		if t.weight < worst && strings.Contains(text, t.token) {
			worst = t.weight
		}
	}
	return worst
}

func altScore(alt, title string) int {
	if alt == "" {
		return 0
	}
	score := 0
	words := tokens(alt)
	switch {
	case title != "" && strings.Contains(alt, title):
		score += 40
	case containsAny(words, foodTerms):
		score += 15
	}
	if containsAny(words, equipmentTerms) {
		score -= 25
	}
	return score
}

func filenameScore(src string) int {
	name := src
	if u, err := url.Parse(src); err == nil {
		name = u.Path
	}
	name = strings.ToLower(path.Base(name))

	score := 0
	if strings.Contains(name, "recipe") {
		score += 10
	}
	if containsAny(tokens(name), foodTerms) {
		score += 10
	}
	if strings.Contains(name, "hero") {
		score += 10
	}
	return score
}

func tokens(s string) []string {
	return nonWord.Split(s, -1)
}

func containsAny(words []string, terms map[string]bool) bool {
	for _, w := range words {
		if terms[w] {
			return true
		}
	}
	return false
}

// recipeImages 遞迴尋找 @type 為 Recipe 的節點並取出 image
func recipeImages(v interface{}) []string {
	switch node := v.(type) {
	case []interface{}:
		var out []string
		for _, item := range node {
			out = append(out, recipeImages(item)...)
		}
		return out
	case map[string]interface{}:
		var out []string
		if isRecipeType(node["@type"]) {
			out = append(out, imageValues(node["image"])...)
		}
		keys := make([]string, 0, len(node))
		for key := range node {
			if key != "image" {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			switch child := node[key].(type) {
			case map[string]interface{}, []interface{}:
				out = append(out, recipeImages(child)...)
			}
		}
		return out
	}
	return nil
}

func isRecipeType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Recipe")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

func imageValues(v interface{}) []string {
	switch img := v.(type) {
	case string:
		return []string{img}
	case []interface{}:
		var out []string
		for _, item := range img {
			out = append(out, imageValues(item)...)
		}
		return out
	case map[string]interface{}:
		for _, key := range []string{"url", "contentUrl"} {
			if s, ok := img[key].(string); ok && s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

// ResolveURL 以頁面 URL 將相對路徑轉為絕對 URL，無法解析時原樣回傳
func ResolveURL(raw, pageURL string) string {
	raw = strings.TrimSpace(raw)
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// PageTitle og:title，其次 <title>，並去除網站名稱後綴
func PageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	for _, sep := range []string{" | ", " - ", " – "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}
