// Package audit writes one structured log line per successful mutation and
// counts them per action.
package audit

import (
	"context"
	"log/slog"

	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "forum_actions_total",
		Help: "Total number of audited forum actions",
	},
	[]string{"action"},
)

type Log struct {
	log *slog.Logger
}

// New logs through the global logger when log is nil.
func New(log *slog.Logger) *Log {
	if log == nil {
		log = logger.Component("audit")
	}
	return &Log{log: log}
}

func (a *Log) Record(ctx context.Context, event domain.AuditEvent) {
	actionsTotal.WithLabelValues(string(event.Action)).Inc()
	a.log.InfoContext(ctx, "audit",
		"event_id", event.Id,
		"action", string(event.Action),
		"actor_id", event.Actor.Id,
		"actor_name", event.Actor.Name,
		"ip", event.Actor.IP,
		"target", event.Target,
		"summary", event.Summary,
		"at", event.At)
}
