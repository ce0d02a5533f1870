package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/justsurfingit/job-board/internal/access"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/session"
	"go.uber.org/zap"
)

const (
	loggerKey       = "logger"
	requestIDHeader = "X-Request-ID"
)

// UserLookup finds the local user behind a platform identity.
type UserLookup interface {
	FindByAuthID(ctx context.Context, authID string) (*models.User, error)
}

// RequestLogger tags each request with an id and logs its outcome.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		l := base.With(zap.String("request_id", reqID))
		c.Set(loggerKey, l)

		c.Next()

		l.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// RequireSession resolves the bearer token to a Caller or aborts with 401.
func RequireSession(resolver session.Resolver, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := session.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, apperrors.Unauthenticated("missing bearer token", nil))
			return
		}

		sess, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := users.FindByAuthID(c.Request.Context(), sess.AuthID)
		if err != nil {
			respondError(c, err)
			return
		}

		caller := access.Caller{
			UserID:   user.ID,
			AuthID:   sess.AuthID,
			TenantID: sess.TenantID,
			Roles:    sess.Roles,
		}
		c.Set(callerKey, caller)
		c.Set(loggerKey, logger(c).With(zap.String("user_id", user.ID)))
		c.Next()
	}
}
