package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/justsurfingit/job-board/internal/dtos"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"
)

const (
	draftModel    = "gemini-2.5-flash"
	maxDraftInput = 20000
)

const jobDraftPrompt = `
You are helping a recruiter publish a job posting. Analyze the raw HTML or text of an
existing posting and extract a draft for a new one.

### INSTRUCTIONS:
1. Ignore navigation menus, footers, "similar jobs" lists and advertisements.
2. Keep the description focused on responsibilities and requirements. Remove HTML tags.
3. Output valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "title": "Job title (e.g., Senior Backend Engineer)",
    "description": "Plain-text description of the role"
}

### CONSTRAINT:
If a field is missing, use an empty string. Do not guess.

### RAW CONTENT:
%s
`

// LLMService turns pasted postings into job drafts. Client is nil when no
// API key is configured, in which case drafting reports UNAVAILABLE.
type LLMService struct {
	Client llms.Model
	Logger *zap.Logger
}

func NewLLMService(ctx context.Context, apiKey string, logger *zap.Logger) (*LLMService, error) {
	s := &LLMService{Logger: logger}
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, job drafting disabled")
		return s, nil
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(draftModel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	s.Client = llm
	return s, nil
}

// ExtractJobDraft asks the model for a title and description.
func (s *LLMService) ExtractJobDraft(ctx context.Context, req *dtos.JobExtractionRequest) (*dtos.JobDraft, error) {
	if s.Client == nil {
		return nil, apperrors.Unavailable("job drafting is not configured", nil)
	}
	if strings.TrimSpace(req.RawHTML) == "" {
		return nil, apperrors.InvalidFields("validation failed", map[string]string{"raw_html": "is required"})
	}

	raw := req.RawHTML
	if len(raw) > maxDraftInput {
		raw = raw[:maxDraftInput]
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(jobDraftPrompt, raw))
	if err != nil {
		return nil, apperrors.Unavailable("job drafting failed", err)
	}

	draft, err := parseDraft(resp)
	if err != nil {
		s.Logger.Warn("unparseable draft", zap.String("source_url", req.URL), zap.Error(err))
		return nil, apperrors.Unavailable("job drafting returned an unreadable answer", err)
	}
	return draft, nil
}

// parseDraft tolerates the markdown fences models add despite being told not to.
func parseDraft(resp string) (*dtos.JobDraft, error) {
	body := strings.TrimSpace(resp)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	var draft dtos.JobDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &draft); err != nil {
		return nil, err
	}
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	return &draft, nil
}
