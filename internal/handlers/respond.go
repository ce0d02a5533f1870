package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/justsurfingit/job-board/internal/access"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"go.uber.org/zap"
)

const callerKey = "caller"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
}

// CallerFrom returns the identity RequireSession stored on the request.
func CallerFrom(c *gin.Context) (access.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return access.Caller{}, false
	}
	caller, ok := v.(access.Caller)
	return caller, ok
}

func mustCaller(c *gin.Context) (access.Caller, bool) {
	caller, ok := CallerFrom(c)
	if !ok {
		respondError(c, apperrors.Unauthenticated("missing session", nil))
	}
	return caller, ok
}

func respondError(c *gin.Context, err error) {
	derr, ok := apperrors.As(err)
	if !ok {
		derr = apperrors.Internal("unexpected error", err)
	}

	status := derr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger(c).Error("request failed",
			zap.String("type", string(derr.Type)),
			zap.Error(derr),
			zap.ByteString("stack", derr.StackTrace()))
	}

	msg := derr.Message
	if derr.Type == apperrors.ErrTypeInternal {
		// Internal details stay in the logs.
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:  msg,
		Type:   string(derr.Type),
		Fields: derr.Fields,
	})
}

// bindError turns a gin binding failure into INVALID_INPUT with one message
// per offending JSON field.
func bindError(err error, target interface{}) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonName(target, fe.StructField())] = describe(fe)
		}
		return apperrors.InvalidFields("validation failed", fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.InvalidFields("validation failed", map[string]string{typeErr.Field: "has the wrong type"})
	}
	return apperrors.InvalidInput("invalid request body: "+err.Error(), err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// jsonName maps a Go struct field to the name clients send.
func jsonName(target interface{}, field string) string {
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		if sf, ok := t.FieldByName(field); ok {
			if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
				return name
			}
		}
	}
	return field
}

func logger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}
