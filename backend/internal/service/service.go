package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/logger"
)

// AuditSink receives one event per successful mutation.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// CaptchaVerifier is consulted before new threads and replies when
// use_captcha is enabled.
type CaptchaVerifier interface {
	Verify(ctx context.Context, actor domain.Actor, token string) error
}

// Clock returns the current time. Services stamp every signature with it.
type Clock func() time.Time

// SystemClock is UTC with the microsecond precision postgres stores.
func SystemClock() time.Time {
	return time.Now().UTC().Round(time.Microsecond)
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, domain.AuditEvent) {}

// NopAudit drops every event.
var NopAudit AuditSink = nopAudit{}

const summaryRunes = 50

// summarize shortens post text for audit summaries.
func summarize(text string) string {
	if utf8.RuneCountInString(text) <= summaryRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:summaryRunes]) + "..."
}

func newEvent(action domain.AuditAction, actor domain.Actor, target, summary string, at time.Time) domain.AuditEvent {
	return domain.AuditEvent{
		Id:      uuid.NewString(),
		Action:  action,
		Actor:   actor,
		Target:  target,
		Summary: summarize(summary),
		At:      at,
	}
}

// writable fails every mutation while the board is in maintenance mode.
func writable(cfg *config.Public) error {
	if cfg.ReadOnly {
		return internal_errors.New(internal_errors.ErrStorageUnavailable, "The forum is in read-only mode")
	}
	return nil
}

func permissionDenied(op string) error {
	logger.Log.Debug("permission denied", "component", "service", "operation", op)
	return internal_errors.PermissionDenied("You are not allowed to " + op)
}
