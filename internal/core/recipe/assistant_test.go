package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/core/ai/service"
	"recipe-assistant/internal/core/fetch"
	"recipe-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipeReply = `Title: Buttermilk Mashed Potatoes
Ingredients:
- 2 pounds potatoes
- 1 cup buttermilk

Instructions:
1. Boil the potatoes.
2. Mash with buttermilk.`

const recipePage = `<html><head>
<title>Buttermilk Mashed Potatoes | Example</title>
<meta property="og:image" content="https://cdn.example.com/mash-300x200.jpg">
</head><body><article><h1>Buttermilk Mashed Potatoes</h1>
<p>Peel and boil 2 pounds of potatoes, then mash them with a cup of buttermilk and plenty of butter.</p>
</article></body></html>`

type fakeFetcher struct {
	page *fetch.Page
	err  error
	urls []string
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) (*fetch.Page, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type call struct {
	op       string
	provider string
	input    string
	history  []provider.Message
}

type fakeGenerator struct {
	reply string
	err   error
	calls []call
}

func (g *fakeGenerator) respond(c call) (*service.Completion, error) {
	g.calls = append(g.calls, c)
	if g.err != nil {
		return nil, g.err
	}
	return &service.Completion{
		Provider: provider.Descriptor{Key: "openai", DisplayName: "OpenAI"},
		Content:  g.reply,
	}, nil
}

func (g *fakeGenerator) ExtractFromPage(_ context.Context, providerKey, url, pageText string) (*service.Completion, error) {
	return g.respond(call{op: "extract", provider: providerKey, input: url + "\n" + pageText})
}

func (g *fakeGenerator) Chat(_ context.Context, providerKey, message string, history []provider.Message) (*service.Completion, error) {
	return g.respond(call{op: "chat", provider: providerKey, input: message, history: history})
}

func (g *fakeGenerator) CleanPastedContent(_ context.Context, providerKey, text string) (*service.Completion, error) {
	return g.respond(call{op: "paste", provider: providerKey, input: text})
}

func TestExtractFromURL(t *testing.T) {
	fetcher := &fakeFetcher{page: &fetch.Page{Status: http.StatusOK, Body: recipePage}}
	gen := &fakeGenerator{reply: recipeReply}
	a := NewAssistant(fetcher, gen)

	res := a.ExtractFromURL(context.Background(), ExtractRequest{URL: " https://www.example.com/mash ", Provider: "groq"})

	require.True(t, res.Success)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, http.StatusOK, res.HTTPStatus())
	assert.Equal(t, []string{"https://www.example.com/mash"}, fetcher.urls)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "extract", gen.calls[0].op)
	assert.Equal(t, "groq", gen.calls[0].provider)
	assert.Contains(t, gen.calls[0].input, "2 pounds of potatoes")
	assert.NotContains(t, gen.calls[0].input, "<p>")

	require.NotNil(t, res.RecipeData)
	assert.Equal(t, "Buttermilk Mashed Potatoes", res.RecipeData.Title)
	assert.Equal(t, "example.com", res.RecipeData.Source)
	assert.Len(t, res.RecipeData.Ingredients, 2)
	assert.Len(t, res.RecipeData.Steps, 2)

	require.NotNil(t, res.ImageURL)
	assert.Equal(t, "https://cdn.example.com/mash.jpg", *res.ImageURL)
	assert.Equal(t, *res.ImageURL, res.RecipeData.ImageURL)
	assert.Equal(t, "openai", res.Provider)
	assert.Contains(t, res.Message, "I've extracted the recipe from https://www.example.com/mash.")
	assert.Contains(t, res.Message, "I also found an image")
	assert.Contains(t, res.Message, "Would you like me to apply this to your recipe form?")
}

func TestExtractFromURLKeepsParsedSource(t *testing.T) {
	fetcher := &fakeFetcher{page: &fetch.Page{Status: http.StatusOK, Body: "<html><body><p>plain</p></body></html>"}}
	gen := &fakeGenerator{reply: "Title: Soup\nSource: Grandma's Kitchen"}

	res := NewAssistant(fetcher, gen).ExtractFromURL(context.Background(), ExtractRequest{URL: "https://soups.example.org/x"})
	require.True(t, res.Success)
	assert.Equal(t, "Grandma's Kitchen", res.RecipeData.Source)
	assert.Nil(t, res.ImageURL)
	assert.NotContains(t, res.Message, "I also found an image")
}

func TestExtractFromURLUnparseableReplyStillSucceeds(t *testing.T) {
	fetcher := &fakeFetcher{page: &fetch.Page{Status: http.StatusOK, Body: "<p>x</p>"}}
	gen := &fakeGenerator{reply: "Sorry, I could not find a recipe."}

	res := NewAssistant(fetcher, gen).ExtractFromURL(context.Background(), ExtractRequest{URL: "https://example.com"})
	require.True(t, res.Success)
	require.NotNil(t, res.RecipeData)
	assert.Empty(t, res.RecipeData.Title)
	assert.Empty(t, res.RecipeData.Steps)
	assert.Equal(t, "example.com", res.RecipeData.Source)
}

func TestExtractFromURLMissingURL(t *testing.T) {
	gen := &fakeGenerator{}
	res := NewAssistant(&fakeFetcher{}, gen).ExtractFromURL(context.Background(), ExtractRequest{URL: "  "})

	assert.False(t, res.Success)
	assert.Equal(t, "URL is required for extraction", res.Message)
	assert.Equal(t, http.StatusBadRequest, res.HTTPStatus())
	assert.Empty(t, gen.calls)
}

func TestExtractFromURLFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: common.NewError(common.ErrCodeFetchFailed, "failed to fetch URL: 404 Not Found", http.StatusBadGateway, nil)}
	gen := &fakeGenerator{}

	res := NewAssistant(fetcher, gen).ExtractFromURL(context.Background(), ExtractRequest{URL: "https://example.com/missing"})
	assert.False(t, res.Success)
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus())
	assert.Equal(t, "I couldn't extract a recipe from the URL: failed to fetch URL: 404 Not Found. "+
		"Please try a different URL or manually enter the recipe details.", res.Message)
	assert.Empty(t, gen.calls)
}

func TestExtractFromURLInvalidURL(t *testing.T) {
	fetcher := &fakeFetcher{err: common.NewError(common.ErrCodeInvalidRequest, "invalid URL", http.StatusBadRequest, nil)}

	res := NewAssistant(fetcher, &fakeGenerator{}).ExtractFromURL(context.Background(), ExtractRequest{URL: "ftp://x"})
	assert.Equal(t, OutcomeInvalidInput, res.Outcome)
	assert.Equal(t, http.StatusBadRequest, res.HTTPStatus())
}

func TestRateLimitedOutcome(t *testing.T) {
	fetcher := &fakeFetcher{page: &fetch.Page{Status: http.StatusOK, Body: recipePage}}
	gen := &fakeGenerator{err: common.NewRateLimitedError("AI provider openai is rate limited. Please try again in 30 seconds.", 30, errors.New("429"))}

	res := NewAssistant(fetcher, gen).ExtractFromURL(context.Background(), ExtractRequest{URL: "https://example.com/a"})
	assert.False(t, res.Success)
	assert.True(t, res.RateLimited)
	assert.Equal(t, 30, res.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, res.HTTPStatus())
	assert.Nil(t, res.RecipeData)
}

func TestAllProvidersRateLimited(t *testing.T) {
	unavailable := common.NewError(common.ErrCodeProviderUnavailable, "All AI providers are currently rate limited.", http.StatusServiceUnavailable, nil)
	unavailable.RetryAfter = 12
	gen := &fakeGenerator{err: unavailable}

	res := NewAssistant(&fakeFetcher{}, gen).Chat(context.Background(), ChatRequest{Message: "hello"})
	assert.True(t, res.RateLimited)
	assert.Equal(t, 12, res.RetryAfter)
	assert.Equal(t, OutcomeRateLimited, res.Outcome)
}

func TestNoProvidersConfigured(t *testing.T) {
	gen := &fakeGenerator{err: common.NewError(common.ErrCodeProviderUnavailable,
		"No AI provider is configured. Please set at least one provider API key.", http.StatusInternalServerError, nil)}

	res := NewAssistant(&fakeFetcher{}, gen).Chat(context.Background(), ChatRequest{Message: "hello"})
	assert.False(t, res.RateLimited)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus())
	assert.Contains(t, res.Message, "No AI provider is configured")
}

func TestChatPlainReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Try adding some garlic."}
	history := []provider.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}

	res := NewAssistant(&fakeFetcher{}, gen).Chat(context.Background(), ChatRequest{Message: "What goes with potatoes?", History: history})
	require.True(t, res.Success)
	assert.Equal(t, "Try adding some garlic.", res.Message)
	assert.Nil(t, res.RecipeData)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "chat", gen.calls[0].op)
	assert.Equal(t, history, gen.calls[0].history)
}

func TestChatReplyWithCompleteRecipe(t *testing.T) {
	gen := &fakeGenerator{reply: recipeReply}

	res := NewAssistant(&fakeFetcher{}, gen).Chat(context.Background(), ChatRequest{Message: "Make me mashed potatoes"})
	require.True(t, res.Success)
	require.NotNil(t, res.RecipeData)
	assert.Equal(t, "Buttermilk Mashed Potatoes", res.RecipeData.Title)
	assert.Equal(t, recipeReply, res.Message)
}

func TestChatRoutesURLToExtraction(t *testing.T) {
	fetcher := &fakeFetcher{page: &fetch.Page{Status: http.StatusOK, Body: recipePage}}
	gen := &fakeGenerator{reply: recipeReply}

	res := NewAssistant(fetcher, gen).Chat(context.Background(), ChatRequest{Message: "  https://www.example.com/mash please", Provider: "google"})
	require.True(t, res.Success)
	assert.Equal(t, []string{"https://www.example.com/mash"}, fetcher.urls)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "extract", gen.calls[0].op)
	assert.Equal(t, "google", gen.calls[0].provider)
}

func TestChatRoutesPastedRecipe(t *testing.T) {
	gen := &fakeGenerator{reply: recipeReply}
	pasted := "Grandma's mash\nIngredients\n2 pounds potatoes\nInstructions\nBoil and mash"

	res := NewAssistant(&fakeFetcher{}, gen).Chat(context.Background(), ChatRequest{Message: pasted})
	require.True(t, res.Success)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "paste", gen.calls[0].op)
	assert.Equal(t, pasted, gen.calls[0].input)
	assert.Contains(t, res.Message, "I've extracted the recipe from your pasted content.")
}

func TestChatMissingMessage(t *testing.T) {
	res := NewAssistant(&fakeFetcher{}, &fakeGenerator{}).Chat(context.Background(), ChatRequest{})
	assert.Equal(t, "Message is required for chat", res.Message)
	assert.Equal(t, OutcomeInvalidInput, res.Outcome)
}

func TestChatProviderFailure(t *testing.T) {
	gen := &fakeGenerator{err: common.NewError(common.ErrCodeProviderError, "AI provider openai failed after 4 attempts",
		http.StatusInternalServerError, &provider.StatusError{Provider: "OpenAI", StatusCode: 503, Body: "secret upstream body"})}

	res := NewAssistant(&fakeFetcher{}, gen).Chat(context.Background(), ChatRequest{Message: "hello"})
	assert.Equal(t, OutcomeFailure, res.Outcome)
	assert.Equal(t, "I'm sorry, but I encountered an error while processing your request: "+
		"AI provider openai failed after 4 attempts. Please try again.", res.Message)
	assert.NotContains(t, res.Message, "secret upstream body")
}

func TestProcessPastedContent(t *testing.T) {
	gen := &fakeGenerator{reply: "Title: Toast\nIngredients:\n1 slice bread\nInstructions:\n1. Toast it"}

	res := NewAssistant(&fakeFetcher{}, gen).ProcessPastedContent(context.Background(), PasteRequest{Content: "toast recipe", Provider: "anthropic"})
	require.True(t, res.Success)
	require.NotNil(t, res.RecipeData)
	assert.Equal(t, []string{"Toast it"}, res.RecipeData.Steps)
	assert.Empty(t, res.RecipeData.Source)
	assert.Equal(t, "anthropic", gen.calls[0].provider)

	res = NewAssistant(&fakeFetcher{}, gen).ProcessPastedContent(context.Background(), PasteRequest{})
	assert.Equal(t, OutcomeInvalidInput, res.Outcome)

	gen.err = errors.New("connection reset")
	res = NewAssistant(&fakeFetcher{}, gen).ProcessPastedContent(context.Background(), PasteRequest{Content: "x"})
	assert.Equal(t, "I couldn't extract a recipe from the pasted content: connection reset. "+
		"Please try again with different content or manually enter the recipe details.", res.Message)
}

func TestURLInMessage(t *testing.T) {
	assert.Equal(t, "https://example.com/a?b=1", urlInMessage(" https://example.com/a?b=1 "))
	assert.Equal(t, "http://sub.example.co.uk/x", urlInMessage("http://sub.example.co.uk/x check this"))
	assert.Empty(t, urlInMessage("see https://example.com"))
	assert.Empty(t, urlInMessage("https://localhost/x"))
}

func TestSourceHost(t *testing.T) {
	assert.Equal(t, "example.com", sourceHost("https://www.example.com/a"))
	assert.Equal(t, "blog.example.com", sourceHost("https://blog.example.com:8443/a"))
}

func TestResultJSONAlwaysCarriesImageURL(t *testing.T) {
	var body map[string]interface{}

	raw, err := json.Marshal(invalidInput("URL is required for extraction"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	v, ok := body["imageUrl"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Contains(t, body, "recipeData")

	img := "https://cdn.example.com/a.jpg"
	raw, err = json.Marshal(&Result{Success: true, ImageURL: &img, Outcome: OutcomeOK})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, img, body["imageUrl"])
}
