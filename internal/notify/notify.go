// Package notify delivers workflow notifications to users.
package notify

import (
	"context"
	"errors"

	apperrors "github.com/justsurfingit/job-board/internal/errors"
)

// Notification keys understood by every dispatcher.
const (
	KeyApplication = "application"
	KeyHiring      = "hiring"
	KeyRejection   = "rejection"
)

type Recipient struct {
	// AuthID is the identity platform id of the user.
	AuthID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

type Datum struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Notification struct {
	Key        string      `json:"key"`
	Recipients []Recipient `json:"recipients"`
	Data       []Datum     `json:"data,omitempty"`
}

// Value returns the data entry for key, or "".
func (n Notification) Value(key string) string {
	for _, d := range n.Data {
		if d.Key == key {
			return d.Value
		}
	}
	return ""
}

type Dispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// Fanout sends every notification through each dispatcher and reports all
// failures together. An empty Fanout delivers nothing and says so.
type Fanout []Dispatcher

func (f Fanout) Notify(ctx context.Context, n Notification) error {
	if len(f) == 0 {
		return apperrors.Unavailable("no notification channel configured", nil)
	}
	var errs []error
	for _, d := range f {
		if err := d.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
