package ai

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// Tagger produces hashtags for post content. Implementations must fail
// open: tag generation is an enrichment, never a reason to reject a
// post.
type Tagger interface {
	GenerateTags(ctx context.Context, content string) []string
}

// MockTagger returns fixed tags; used in development and tests.
type MockTagger struct{}

func (MockTagger) GenerateTags(context.Context, string) []string {
	return []string{"#mock", "#test", "#AI"}
}

// GeminiTagger asks a Gemini model for hashtags describing the content.
type GeminiTagger struct {
	client *genai.Client
	model  string
}

func NewGeminiTagger(ctx context.Context, apiKey, model string) (*GeminiTagger, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiTagger{client: client, model: model}, nil
}

const tagPrompt = `Analyze this text and generate 3 relevant hashtags. Return ONLY the hashtags in a JSON array. Text: %q`

func (t *GeminiTagger) GenerateTags(ctx context.Context, content string) []string {
	resp, err := t.client.Models.GenerateContent(ctx, t.model,
		genai.Text(fmt.Sprintf(tagPrompt, content)), nil)
	if err != nil {
		slog.Warn("tag generation failed", "error", err)
		return nil
	}

	tags := ParseTagArray(resp.Text())
	if tags == nil {
		slog.Warn("tag generation returned unparseable output")
	}
	return tags
}

// jsonArrayRe finds the first JSON array in model output, which may be
// wrapped in markdown fences or prose.
var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

// ParseTagArray extracts a string array from raw model output and
// normalizes each entry to a #-prefixed hashtag. Returns nil when no
// array can be recovered.
func ParseTagArray(text string) []string {
	match := jsonArrayRe.FindString(text)
	if match == "" {
		return nil
	}

	parsed := gjson.Parse(match)
	if !parsed.IsArray() {
		return nil
	}

	var tags []string
	for _, item := range parsed.Array() {
		tag := strings.TrimSpace(item.String())
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	return tags
}
