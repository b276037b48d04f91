package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt += text.Text
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestExtractParsesFencedJSON(t *testing.T) {
	model := &fakeModel{reply: "```json\n{\"title\":\"Go Developer\",\"company\":\"Acme\",\"jobType\":\"Full-time\",\"requirements\":[\"Go\"]}\n```"}
	extractor := NewJobExtractor(model, quietLog())

	draft, err := extractor.Extract(context.Background(), "<h1>Go Developer</h1>")
	require.NoError(t, err)
	assert.Equal(t, "Go Developer", draft.Title)
	assert.Equal(t, "Acme", draft.Company)
	assert.Equal(t, []string{"Go"}, draft.Requirements)
	assert.Contains(t, model.prompt, "<h1>Go Developer</h1>")
}

func TestExtractTruncatesLongPages(t *testing.T) {
	model := &fakeModel{reply: `{"title":"x"}`}
	extractor := NewJobExtractor(model, quietLog())

	_, err := extractor.Extract(context.Background(), strings.Repeat("~", maxPostingChars+500))
	require.NoError(t, err)
	assert.Equal(t, maxPostingChars, strings.Count(model.prompt, "~"))
}

func TestExtractKeepsRunesWhole(t *testing.T) {
	model := &fakeModel{reply: `{"title":"x"}`}
	extractor := NewJobExtractor(model, quietLog())

	page := strings.Repeat("~", maxPostingChars-1) + "é and more"
	_, err := extractor.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(model.prompt))
	assert.Equal(t, maxPostingChars-1, strings.Count(model.prompt, "~"))
	assert.NotContains(t, model.prompt, "é")

	assert.Equal(t, "ab", clip("abé", 3))
	assert.Equal(t, "abé", clip("abé", 4))
	assert.Equal(t, "", clip("é", 1))
}

func TestExtractFailures(t *testing.T) {
	var disabled *JobExtractor
	_, err := disabled.Extract(context.Background(), "page")
	assert.True(t, apperr.Is(err, apperr.CodeUnavailable))

	_, err = NewJobExtractor(&fakeModel{err: errors.New("quota")}, quietLog()).Extract(context.Background(), "page")
	assert.True(t, apperr.Is(err, apperr.CodeUnavailable))

	_, err = NewJobExtractor(&fakeModel{reply: "not json"}, quietLog()).Extract(context.Background(), "page")
	assert.True(t, apperr.Is(err, apperr.CodeUnavailable))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
