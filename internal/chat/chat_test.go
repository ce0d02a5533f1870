package chat

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.CreateConversation(context.Background(), Conversation{Title: "x"})
	if !apperrors.Is(err, apperrors.ErrTypeUnavailable) {
		t.Errorf("Expected UNAVAILABLE, got %v", err)
	}
}

func TestNATSClient_RequestReply(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Timeout(time.Second))
	if err != nil {
		t.Skipf("Skipping test - NATS not available: %v", err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(CreateConversationSubject, func(msg *nats.Msg) {
		var conv Conversation
		if err := json.Unmarshal(msg.Data, &conv); err != nil {
			msg.Respond([]byte(`{"error":"bad payload"}`))
			return
		}
		if conv.Title == "refuse" {
			msg.Respond([]byte(`{"error":"nope"}`))
			return
		}
		msg.Respond([]byte(`{"id":"conv-42"}`))
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	client := NewNATSClient(nc, 2*time.Second, zap.NewNop())

	id, err := client.CreateConversation(context.Background(), Conversation{
		Title:     "Backend Engineer",
		OwnerID:   "roq-applicant",
		MemberIDs: []string{"roq-applicant", "roq-poster"},
		IsGroup:   true,
	})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if id != "conv-42" {
		t.Errorf("Expected conv-42, got %s", id)
	}

	_, err = client.CreateConversation(context.Background(), Conversation{Title: "refuse"})
	if !apperrors.Is(err, apperrors.ErrTypeUnavailable) {
		t.Errorf("Expected UNAVAILABLE on refusal, got %v", err)
	}
}
