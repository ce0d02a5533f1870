package services

import (
	"context"
	"testing"

	"github.com/justsurfingit/job-board/internal/dtos"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"go.uber.org/zap"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"plain", `{"title":" Go Engineer ","description":"Build things"}`},
		{"fenced", "```json\n{\"title\":\"Go Engineer\",\"description\":\"Build things\"}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := parseDraft(tt.resp)
			if err != nil {
				t.Fatalf("parseDraft failed: %v", err)
			}
			if draft.Title != "Go Engineer" || draft.Description != "Build things" {
				t.Errorf("Unexpected draft %+v", draft)
			}
		})
	}

	if _, err := parseDraft("sorry, I can't"); err == nil {
		t.Error("Expected error for non-JSON answer")
	}
}

func TestExtractJobDraft_Disabled(t *testing.T) {
	s, err := NewLLMService(context.Background(), "", zap.NewNop())
	if err != nil {
		t.Fatalf("NewLLMService failed: %v", err)
	}
	_, err = s.ExtractJobDraft(context.Background(), &dtos.JobExtractionRequest{RawHTML: "<h1>Job</h1>"})
	if !apperrors.Is(err, apperrors.ErrTypeUnavailable) {
		t.Errorf("Expected UNAVAILABLE without an API key, got %v", err)
	}
}
