package reconcile

//go:generate mockgen -source=engine.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"strconv"

	"studbook/internal/directory"
	"studbook/internal/reconcile/metrics"
	"studbook/internal/reconcile/wildapricot"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/platform/audit"
)

// ContactFetcher retrieves contact details from the membership platform.
// *wildapricot.Client satisfies it.
type ContactFetcher interface {
	Contact(ctx context.Context, contactID int64) (*wildapricot.ContactDetails, error)
}

// MemberDirectory is the slice of the directory service the engine needs.
// *directory.Service satisfies it.
type MemberDirectory interface {
	Get(ctx context.Context, memberID id.MemberID) (*directory.Member, error)
	SetStanding(ctx context.Context, memberID id.MemberID, active bool) (*directory.Member, error)
	FindOrCreateByExternalID(ctx context.Context, contactID id.MemberID,
		seed func(ctx context.Context) (*directory.Member, error)) (*directory.Member, bool, error)
}

// Engine applies membership events to the local directory. Every handler is
// idempotent, so at-least-once webhook delivery converges.
type Engine struct {
	members  MemberDirectory
	contacts ContactFetcher
	audit    *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewEngine(members MemberDirectory, contacts ContactFetcher,
	publisher *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{members: members, contacts: contacts, audit: publisher, metrics: m, logger: logger}
}

// Process dispatches one membership event. Unknown actions and non-membership
// messages are recorded and dropped without error; only upstream failures and
// invalid payloads propagate, so the webhook can signal retry.
func (e *Engine) Process(ctx context.Context, event Event) error {
	if event.MessageType != MessageTypeMembership {
		e.ignore(ctx, event, "unsupported message type")
		return nil
	}

	switch event.Parameters.Action {
	case ActionEnabled:
		return e.handleEnabled(ctx, event.Parameters)
	case ActionDisabled:
		return e.handleDisabled(ctx, event.Parameters)
	case ActionStatusChanged:
		return e.handleStatusChanged(ctx, event.Parameters)
	case ActionRenewalDateChanged:
		return e.handleDateChanged(ctx, event.Parameters, audit.EventRenewalDateChanged)
	case ActionLevelChanged:
		return e.handleDateChanged(ctx, event.Parameters, audit.EventLevelChanged)
	default:
		e.ignore(ctx, event, "unknown action")
		return nil
	}
}

// handleEnabled reactivates a known member, unless the platform reports the
// membership as lapsed, in which case the account stays as it is.
func (e *Engine) handleEnabled(ctx context.Context, params Parameters) error {
	memberID, err := params.ContactMemberID()
	if err != nil {
		return err
	}
	if int64(params.Status) == MembershipLapsed {
		e.metrics.IncrementEvent(params.Action, "skipped")
		return nil
	}

	if _, err := e.members.Get(ctx, memberID); err != nil {
		return e.skipMissing(ctx, params, memberID, err)
	}
	if _, err := e.members.SetStanding(ctx, memberID, true); err != nil {
		e.metrics.IncrementEvent(params.Action, "failed")
		return err
	}

	e.metrics.IncrementEvent(params.Action, "applied")
	e.audit.Emit(ctx, audit.Event{
		Name:     audit.EventMemberEnabled,
		MemberID: memberID,
		Subject:  memberID.String(),
	})
	return nil
}

// handleDisabled deactivates a known member.
func (e *Engine) handleDisabled(ctx context.Context, params Parameters) error {
	memberID, err := params.ContactMemberID()
	if err != nil {
		return err
	}

	if _, err := e.members.Get(ctx, memberID); err != nil {
		return e.skipMissing(ctx, params, memberID, err)
	}
	if _, err := e.members.SetStanding(ctx, memberID, false); err != nil {
		e.metrics.IncrementEvent(params.Action, "failed")
		return err
	}

	e.metrics.IncrementEvent(params.Action, "applied")
	e.audit.Emit(ctx, audit.Event{
		Name:     audit.EventMemberDisabled,
		MemberID: memberID,
		Subject:  memberID.String(),
	})
	return nil
}

// handleStatusChanged creates the member from platform contact details if
// this is the first event for the contact, then aligns standing with the
// reported status. The contact fetch happens before any local write, so an
// upstream failure leaves nothing behind.
func (e *Engine) handleStatusChanged(ctx context.Context, params Parameters) error {
	memberID, err := params.ContactMemberID()
	if err != nil {
		return err
	}
	active := int64(params.Status) == MembershipActive

	member, created, err := e.members.FindOrCreateByExternalID(ctx, memberID,
		func(ctx context.Context) (*directory.Member, error) {
			details, err := e.contacts.Contact(ctx, int64(memberID))
			if err != nil {
				return nil, err
			}
			return &directory.Member{
				FirstName: details.FirstName,
				LastName:  details.LastName,
				Email:     details.Email,
				Mobile:    details.Phone,
				IsActive:  active,
				IsPaid:    active,
				Role:      directory.RoleMember,
			}, nil
		})
	if err != nil {
		e.metrics.IncrementEvent(params.Action, "failed")
		return err
	}
	if created {
		e.metrics.IncrementMembersCreated()
	} else if member.IsActive != active {
		if _, err := e.members.SetStanding(ctx, memberID, active); err != nil {
			e.metrics.IncrementEvent(params.Action, "failed")
			return err
		}
	}

	e.metrics.IncrementEvent(params.Action, "applied")
	e.audit.Emit(ctx, audit.Event{
		Name:     audit.EventMemberSynced,
		MemberID: memberID,
		Subject:  memberID.String(),
		Detail:   strconv.FormatInt(int64(params.Status), 10),
	})
	return nil
}

// handleDateChanged records renewal-date and level changes for the audit
// trail without touching the member record.
func (e *Engine) handleDateChanged(ctx context.Context, params Parameters, name audit.AuditEvent) error {
	memberID, err := params.ContactMemberID()
	if err != nil {
		return err
	}
	e.metrics.IncrementEvent(params.Action, "applied")
	e.audit.Emit(ctx, audit.Event{
		Name:     name,
		MemberID: memberID,
		Subject:  memberID.String(),
		Detail:   strconv.FormatInt(int64(params.LevelID), 10),
	})
	return nil
}

// skipMissing drops standing events for contacts never seen locally. The
// member will materialize on its first StatusChanged event.
func (e *Engine) skipMissing(ctx context.Context, params Parameters, memberID id.MemberID, err error) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		e.logger.InfoContext(ctx, "membership event for unknown member, skipping",
			slog.String("action", params.Action),
			slog.Int64("contact_id", int64(memberID)))
		e.metrics.IncrementEvent(params.Action, "skipped")
		return nil
	}
	e.metrics.IncrementEvent(params.Action, "failed")
	return err
}

func (e *Engine) ignore(ctx context.Context, event Event, reason string) {
	e.logger.InfoContext(ctx, "membership event ignored",
		slog.String("message_type", event.MessageType),
		slog.String("action", event.Parameters.Action),
		slog.String("reason", reason))
	e.metrics.IncrementEvent(event.Parameters.Action, "ignored")
	e.audit.Emit(ctx, audit.Event{
		Name:   audit.EventWebhookIgnored,
		Detail: event.Parameters.Action,
	})
}
