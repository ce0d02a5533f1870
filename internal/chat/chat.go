// Package chat opens conversation threads on the messaging platform.
package chat

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/telemetry"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const CreateConversationSubject = "chat.conversations.create"

var tracer = telemetry.Tracer(telemetry.Chat)

type Conversation struct {
	Title     string   `json:"title"`
	OwnerID   string   `json:"ownerId"`
	MemberIDs []string `json:"memberIds"`
	IsGroup   bool     `json:"isGroup"`
}

type Client interface {
	// CreateConversation returns the id of the new thread.
	CreateConversation(ctx context.Context, conv Conversation) (string, error)
}

type createReply struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// NATSClient talks to the chat service with request/reply.
type NATSClient struct {
	conn    *nats.Conn
	timeout time.Duration
	logger  *zap.Logger
}

func NewNATSClient(conn *nats.Conn, timeout time.Duration, logger *zap.Logger) *NATSClient {
	return &NATSClient{conn: conn, timeout: timeout, logger: logger}
}

func (c *NATSClient) CreateConversation(ctx context.Context, conv Conversation) (string, error) {
	ctx, span := tracer.Start(ctx, "CreateConversation")
	defer span.End()

	data, err := json.Marshal(conv)
	if err != nil {
		span.RecordError(err)
		return "", apperrors.Internal("marshaling conversation", err)
	}
	span.SetAttributes(
		telemetry.Subject(CreateConversationSubject),
		telemetry.Recipients(len(conv.MemberIDs)),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, CreateConversationSubject, data)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("conversation request failed", zap.String("title", conv.Title), zap.Error(err))
		return "", apperrors.Unavailable("chat service request", err)
	}

	var reply createReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		span.RecordError(err)
		return "", apperrors.Unavailable("decoding chat reply", err)
	}
	if reply.Error != "" || reply.ID == "" {
		return "", apperrors.Unavailable("chat service refused conversation: "+reply.Error, nil)
	}

	c.logger.Debug("conversation created", zap.String("id", reply.ID), zap.String("title", conv.Title))
	return reply.ID, nil
}

// Disabled is used when no chat transport is configured.
type Disabled struct{}

func (Disabled) CreateConversation(context.Context, Conversation) (string, error) {
	return "", apperrors.Unavailable("chat transport not configured", nil)
}
