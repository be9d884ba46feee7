package recipe

import (
	"fmt"
	"regexp"
	"strings"
)

// 標籤鍵值
const (
	labelTitle        = "title"
	labelSubtitle     = "subtitle"
	labelDescription  = "description"
	labelAuthor       = "author"
	labelSource       = "source"
	labelYield        = "yield"
	labelCookTime     = "cook_time"
	labelCookingTime  = "cooking_time"
	labelTime         = "time"
	labelTotalTime    = "total_time"
	labelPrepTime     = "prep_time"
	labelNotes        = "notes"
	labelTags         = "tags"
	labelIngredients  = "ingredients"
	labelInstructions = "instructions"
	labelSteps        = "steps"
	labelDirections   = "directions"
	labelMethod       = "method"
	labelOther        = "other"
)

type labelRule struct {
	key     string
	pattern *regexp.Regexp
}

// labelPattern 行首的欄位標籤，可帶標題符號與粗體；沒有冒號時必須獨佔一行
func labelPattern(names string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`(?i)^\s*(?:#{1,6}\s*)?(?:\*{1,2}|_{1,2})?(?:%s)(?:\*{1,2}|_{1,2})?\s*(?::(?:\*{1,2}|_{1,2})?[ \t]*(.*)|[ \t]*$)`,
		names))
}

var labelRules = []labelRule{
	{labelTitle, labelPattern(`title`)},
	{labelSubtitle, labelPattern(`subtitle`)},
	{labelDescription, labelPattern(`description`)},
	{labelAuthor, labelPattern(`author`)},
	{labelSource, labelPattern(`source`)},
	{labelYield, labelPattern(`yield|servings|serves`)},
	{labelCookTime, labelPattern(`cook\s+time`)},
	{labelCookingTime, labelPattern(`cooking\s+time`)},
	{labelTime, labelPattern(`time`)},
	{labelTotalTime, labelPattern(`total\s+time`)},
	{labelPrepTime, labelPattern(`prep(?:aration)?\s+time`)},
	{labelNotes, labelPattern(`notes?`)},
	{labelTags, labelPattern(`tags`)},
	{labelIngredients, labelPattern(`ingredients`)},
	{labelInstructions, labelPattern(`instructions`)},
	{labelSteps, labelPattern(`steps`)},
	{labelDirections, labelPattern(`directions`)},
	{labelMethod, labelPattern(`method`)},
	// 只用來結束上一段的欄位
	{labelOther, labelPattern(`nutrition|equipment|calories|cuisine|course|category|keywords`)},
}

var (
	cookTimeLabels = []string{labelCookTime, labelCookingTime, labelTime, labelTotalTime}
	stepLabels     = []string{labelInstructions, labelSteps, labelDirections, labelMethod}

	headingMarker    = regexp.MustCompile(`^(?:#+\s*)+`)
	sectionHeader    = regexp.MustCompile(`^[A-Z][a-z]+:$`)
	ingredientMarker = regexp.MustCompile(`^(?:[-•*+]|\d+[.)])(?:\s+|$)`)
	fieldLine        = regexp.MustCompile(`^(?:#+\s*)?(?:\*{1,2}|_{1,2})?[A-Za-z]+(?:\*{1,2}|_{1,2})?:(?:[^/]|$)`)
	stepMarker       = regexp.MustCompile(`(?i)^(?:step\s+\d+[:.)]?|\d+[.)]|[-*•+](?:\s|$))\s*`)
	metadataLine     = regexp.MustCompile(`(?i)^\*\*(?:cooking time|servings|prep time|cook time):`)
	closingPhrase    = regexp.MustCompile(`(?i)enjoy your meal|serving suggestion|bon app[ée]tit`)
	quantityPrefix   = regexp.MustCompile(`(?i)^((?:\d|[¼½¾⅐⅑⅒⅓⅔⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞])[\d\s/.\-,¼½¾⅐⅑⅒⅓⅔⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞]*\s*` +
		`(?:cups?|tablespoons?|tbsp|tbs|teaspoons?|tsp|pounds?|lbs?|ounces?|oz|grams?|g|kilograms?|kg|` +
		`milliliters?|ml|liters?|l|pinch(?:es)?|dash(?:es)?|to taste|handful|[a-z]+)?)\s+(.+)$`)
)

// lineLabel 單行的標籤分類結果
type lineLabel struct {
	key  string
	rest string
}

type parser struct {
	lines  []string
	labels []lineLabel
}

// ParseRecipeText 將自由文字解析為食譜草稿，不會失敗；找不到的欄位保持空值
func ParseRecipeText(text string) *RecipeDraft {
	p := newParser(text)

	d := &RecipeDraft{
		Title:       p.single(labelTitle),
		Subtitle:    p.single(labelSubtitle),
		Description: p.multi(labelDescription),
		Author:      p.single(labelAuthor),
		Source:      p.single(labelSource),
		Yield:       p.single(labelYield),
		PrepTime:    p.single(labelPrepTime),
		Notes:       p.multi(labelNotes),
		Tags:        parseTags(p.single(labelTags)),
		Ingredients: []Ingredient{},
		Steps:       []string{},
	}

	for _, key := range cookTimeLabels {
		if v := p.single(key); v != "" {
			d.CookTime = v
			break
		}
	}

	if idx := p.find(labelIngredients); idx >= 0 {
		d.Ingredients = parseIngredients(p.span(idx, false, true))
	}

	for _, key := range stepLabels {
		if idx := p.find(key); idx >= 0 {
			d.Steps = parseSteps(p.span(idx, true, false))
			break
		}
	}

	return d
}

func newParser(text string) *parser {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	p := &parser{lines: lines, labels: make([]lineLabel, len(lines))}
	for i, line := range lines {
		p.labels[i] = classify(line)
	}
	return p
}

// classify 判斷該行是否為欄位標籤
func classify(line string) lineLabel {
	for _, rule := range labelRules {
		if m := rule.pattern.FindStringSubmatch(line); m != nil {
			return lineLabel{key: rule.key, rest: m[1]}
		}
	}
	return lineLabel{}
}

func (p *parser) isLabel(i int) bool {
	return p.labels[i].key != ""
}

func (p *parser) find(key string) int {
	for i, l := range p.labels {
		if l.key == key {
			return i
		}
	}
	return -1
}

// single 單行欄位：標籤後的內容，若為空則取下一個非空白、非標籤行
func (p *parser) single(key string) string {
	idx := p.find(key)
	if idx < 0 {
		return ""
	}
	if v := clean(p.labels[idx].rest); v != "" {
		return v
	}
	for j := idx + 1; j < len(p.lines); j++ {
		if strings.TrimSpace(p.lines[j]) == "" {
			continue
		}
		if p.isLabel(j) {
			return ""
		}
		return clean(p.lines[j])
	}
	return ""
}

// multi 多行欄位，以換行連接
func (p *parser) multi(key string) string {
	idx := p.find(key)
	if idx < 0 {
		return ""
	}
	var parts []string
	for _, line := range p.span(idx, false, false) {
		if v := clean(line); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

// span 收集標籤之後的行，遇到空白行或欄位行（`Word:` 開頭）即停止；開頭的空白行會略過。
// keepMetadata 為 true 時粗體的時間、份量行不結束；keepSections 為 true 時單字小節標題（如 Sauce:）不結束。
func (p *parser) span(idx int, keepMetadata, keepSections bool) []string {
	var out []string
	if rest := strings.TrimSpace(p.labels[idx].rest); rest != "" {
		out = append(out, rest)
	}

	for j := idx + 1; j < len(p.lines); j++ {
		line := strings.TrimSpace(p.lines[j])
		if line == "" {
			if len(out) == 0 {
				continue
			}
			break
		}
		if p.endsSpan(j, line, keepMetadata, keepSections) {
			break
		}
		out = append(out, line)
	}
	return out
}

func (p *parser) endsSpan(i int, line string, keepMetadata, keepSections bool) bool {
	if keepMetadata && metadataLine.MatchString(line) {
		return false
	}
	if p.isLabel(i) {
		return true
	}
	if !fieldLine.MatchString(line) {
		return false
	}
	return !(keepSections && sectionHeader.MatchString(clean(line)))
}

// clean 移除粗體、斜體與標題符號並整理空白
func clean(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = collapse(s)
	s = headingMarker.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToLower(clean(t)); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseIngredients(lines []string) []Ingredient {
	out := []Ingredient{}
	for _, line := range lines {
		line = collapse(line)
		line = ingredientMarker.ReplaceAllString(line, "")
		line = clean(line)
		if line == "" || sectionHeader.MatchString(line) {
			continue
		}
		out = append(out, splitQuantity(line))
	}
	return out
}

// splitQuantity 拆出數量與單位，沒有數量時 Quantity 為空
func splitQuantity(line string) Ingredient {
	m := quantityPrefix.FindStringSubmatch(line)
	if m == nil {
		return Ingredient{Name: line}
	}
	return Ingredient{Quantity: strings.TrimSpace(m[1]), Name: strings.TrimSpace(m[2])}
}

func parseSteps(lines []string) []string {
	var grouped []string
	current := ""
	flush := func() {
		if current != "" {
			grouped = append(grouped, current)
		}
		current = ""
	}

	for _, line := range lines {
		line = collapse(line)
		if metadataLine.MatchString(line) {
			continue
		}

		probe := line
		if strings.HasPrefix(probe, "**") || strings.HasPrefix(probe, "__") {
			probe = clean(probe)
		}
		if loc := stepMarker.FindStringIndex(probe); loc != nil {
			flush()
			current = clean(probe[loc[1]:])
			continue
		}

		if v := clean(line); v != "" {
			if current == "" {
				current = v
			} else {
				current += " " + v
			}
		}
	}
	flush()

	steps := []string{}
	for _, s := range grouped {
		if s == "" || closingPhrase.MatchString(s) {
			continue
		}
		steps = append(steps, s)
	}
	return steps
}

// HasCompleteRecipe 回覆是否包含完整食譜（標題、食材、步驟）
func HasCompleteRecipe(text string) bool {
	return strings.Contains(text, "Title:") &&
		strings.Contains(text, "Ingredients:") &&
		(strings.Contains(text, "Instructions:") || strings.Contains(text, "Steps:"))
}

var (
	durationPattern = regexp.MustCompile(`\d+\s+(?:minute|hour)`)
	measurePattern  = regexp.MustCompile(`(?i)\d+\s+(?:tablespoon|teaspoon|cup|pound|ounce|gram)`)
)

// LooksLikeRecipe 判斷聊天訊息是否為貼上的食譜內容
func LooksLikeRecipe(message string) bool {
	has := func(s string) bool { return strings.Contains(message, s) }
	return (has("Ingredients") && has("Instructions")) ||
		(has("Ingredients") && (has("Directions") || has("Steps"))) ||
		(durationPattern.MatchString(message) && measurePattern.MatchString(message))
}
