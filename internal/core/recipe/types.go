package recipe

// Ingredient 食材，Quantity 可為空
type Ingredient struct {
	Quantity string `json:"quantity"`
	Name     string `json:"name"`
}

// RecipeDraft 從文字解析出的食譜草稿，未比對到的欄位為零值。
// Ingredients 與 Steps 不會是 nil。
type RecipeDraft struct {
	Title       string       `json:"title,omitempty"`
	Subtitle    string       `json:"subtitle,omitempty"`
	Description string       `json:"description,omitempty"`
	Author      string       `json:"author,omitempty"`
	Source      string       `json:"source,omitempty"`
	Yield       string       `json:"yield,omitempty"`
	CookTime    string       `json:"cookTime,omitempty"`
	PrepTime    string       `json:"prepTime,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	ImageURL    string       `json:"imageUrl,omitempty"`
}

// IsEmpty 是否沒有任何欄位被解析出來
func (d *RecipeDraft) IsEmpty() bool {
	return d.Title == "" && d.Subtitle == "" && d.Description == "" && d.Author == "" &&
		d.Source == "" && d.Yield == "" && d.CookTime == "" && d.PrepTime == "" && d.Notes == "" &&
		len(d.Tags) == 0 && len(d.Ingredients) == 0 && len(d.Steps) == 0
}
