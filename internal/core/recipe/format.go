package recipe

import (
	"strconv"
	"strings"
)

// FormatRecipeText 以解析器可讀的標籤格式輸出草稿
func FormatRecipeText(d *RecipeDraft) string {
	if d == nil {
		return ""
	}

	var b strings.Builder
	field := func(label, value string) {
		if value != "" {
			b.WriteString(label + ": " + value + "\n")
		}
	}

	field("Title", d.Title)
	field("Subtitle", d.Subtitle)
	field("Description", d.Description)
	field("Author", d.Author)
	field("Source", d.Source)
	field("Yield", d.Yield)
	field("Prep Time", d.PrepTime)
	field("Cook Time", d.CookTime)

	if len(d.Ingredients) > 0 {
		b.WriteString("Ingredients:\n")
		for _, ing := range d.Ingredients {
			line := ing.Name
			if ing.Quantity != "" {
				line = ing.Quantity + " " + ing.Name
			}
			b.WriteString("- " + line + "\n")
		}
		b.WriteString("\n")
	}

	if len(d.Steps) > 0 {
		b.WriteString("Instructions:\n")
		for i, step := range d.Steps {
			b.WriteString(strconv.Itoa(i+1) + ". " + step + "\n")
		}
		b.WriteString("\n")
	}

	field("Notes", d.Notes)
	if len(d.Tags) > 0 {
		field("Tags", strings.Join(d.Tags, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}
