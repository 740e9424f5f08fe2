package decision

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	appAudit "github.com/closet-hub/closet-hub/internal/application/audit"
	"github.com/closet-hub/closet-hub/internal/domain/audit"
	"github.com/closet-hub/closet-hub/internal/domain/event"
	"github.com/closet-hub/closet-hub/internal/domain/notification"
)

// Dispatcher fans a resolved decision out to the audit trail, the event
// bus, and the notification channel. Each sink is isolated: a failure in
// one is logged and never propagated, never undoes the stored
// transition, and never prevents the other sinks from running.
type Dispatcher struct {
	auditSvc *appAudit.Service
	bus      event.Bus
	notifier notification.Notifier
	logger   zerolog.Logger
}

// NewDispatcher creates a side-effect dispatcher. bus and notifier may
// be nil; the corresponding sink is then skipped.
func NewDispatcher(auditSvc *appAudit.Service, bus event.Bus, notifier notification.Notifier, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		auditSvc: auditSvc,
		bus:      bus,
		notifier: notifier,
		logger:   logger.With().Str("service", "dispatcher").Logger(),
	}
}

// AppendAudit appends one audit entry, best effort.
func (d *Dispatcher) AppendAudit(ctx context.Context, recordID string, action audit.Action, actor string, detail interface{}) {
	if d.auditSvc == nil {
		return
	}
	if err := d.auditSvc.Append(ctx, recordID, action, actor, detail); err != nil {
		d.logger.Error().Err(err).
			Str("recordId", recordID).
			Str("action", string(action)).
			Msg("audit append failed")
	}
}

// EmitEvent publishes one workflow event, best effort.
func (d *Dispatcher) EmitEvent(ctx context.Context, ev event.Event) {
	if d.bus == nil {
		return
	}
	if err := d.bus.Publish(ctx, ev); err != nil {
		d.logger.Error().Err(err).
			Str("recordId", ev.RecordID).
			Str("type", string(ev.Type)).
			Msg("event publish failed")
	}
}

// Notify sends one notification, best effort.
func (d *Dispatcher) Notify(ctx context.Context, subject, body string, payload interface{}) {
	if d.notifier == nil {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			d.logger.Warn().Err(err).Msg("failed to marshal notification payload")
			return
		}
		raw = data
	}
	if err := d.notifier.Notify(ctx, notification.NewMessage(subject, body, raw)); err != nil {
		d.logger.Error().Err(err).Str("subject", subject).Msg("notification send failed")
	}
}
