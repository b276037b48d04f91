package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const maxPostingChars = 20000

const jobExtractionPrompt = `
You are a job posting extraction agent. Analyze the raw HTML or text of a job posting and extract structured data.

### INSTRUCTIONS:
1. Ignore navigation menus, footers, "similar jobs" lists and advertisements.
2. Output valid JSON only. Do not wrap it in markdown code blocks.
3. jobType must be one of: Full-time, Part-time, Contract, Internship, Freelance.
4. employmentMode must be one of: Remote, On-site, Hybrid.
5. If a value is missing, use an empty string or an empty array. Do not guess.

### OUTPUT SCHEMA:
{
  "title": "Job title",
  "company": "Company name",
  "location": "Country or city",
  "jobType": "Full-time",
  "employmentMode": "Remote",
  "description": "Plain text summary without HTML",
  "responsibilities": ["..."],
  "requirements": ["..."],
  "benefits": ["..."]
}

### RAW CONTENT:
%s
`

// JobExtractor drafts a job posting from a pasted job page using an LLM.
type JobExtractor struct {
	model llms.Model
	log   *logrus.Entry
}

// NewGeminiExtractor builds an extractor on Google's Gemini models.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, log *logrus.Entry) (*JobExtractor, error) {
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewJobExtractor(client, log), nil
}

func NewJobExtractor(model llms.Model, log *logrus.Entry) *JobExtractor {
	return &JobExtractor{model: model, log: log}
}

// Extract returns CodeUnavailable when no model is configured.
func (e *JobExtractor) Extract(ctx context.Context, rawHTML string) (*dtos.JobDraft, error) {
	if e == nil || e.model == nil {
		return nil, apperr.New(apperr.CodeUnavailable, "Job extraction is not configured")
	}
	rawHTML = clip(rawHTML, maxPostingChars)
	resp, err := llms.GenerateFromSinglePrompt(ctx, e.model, fmt.Sprintf(jobExtractionPrompt, rawHTML),
		llms.WithJSONMode(),
		llms.WithTemperature(0),
	)
	if err != nil {
		e.log.WithError(err).Warn("job extraction failed")
		return nil, apperr.Wrap(apperr.CodeUnavailable, "AI extraction failed", err)
	}

	var draft dtos.JobDraft
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &draft); err != nil {
		e.log.WithError(err).WithField("response", truncate(resp, 200)).Warn("unparseable extraction")
		return nil, apperr.Wrap(apperr.CodeUnavailable, "AI extraction returned malformed data", err)
	}
	return &draft, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// clip cuts s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return clip(s, n) + "..."
}
