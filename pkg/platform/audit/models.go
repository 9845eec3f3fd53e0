package audit

import (
	"time"

	id "studbook/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. Registry
// decisions and ownership transfers are association records with long
// retention; sync and routine activity can be sampled.
type EventCategory string

const (
	// CategoryRegistry covers decisions that change the official studbook:
	// approvals, rejections, name changes, ownership transfers.
	CategoryRegistry EventCategory = "registry"

	// CategorySync covers membership reconciliation driven by the external
	// membership platform.
	CategorySync EventCategory = "sync"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Name      AuditEvent    `json:"name"`
	Timestamp time.Time     `json:"timestamp"`
	// MemberID is the member the event concerns, zero when not member-scoped.
	MemberID id.MemberID `json:"member_id,omitempty"`
	// ActorID is who performed the action when different from MemberID
	// (admin decisions on a member's horse).
	ActorID id.MemberID `json:"actor_id,omitempty"`
	// Subject identifies the entity acted on (horse id, transfer id,
	// external contact id).
	Subject string `json:"subject,omitempty"`
	// Detail carries a short free-form qualifier (decision, action name,
	// status code).
	Detail string `json:"detail,omitempty"`
	// RequestID is the correlation id from the HTTP request context.
	RequestID string `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	// Registry events
	EventHorseSubmitted    AuditEvent = "horse_submitted"
	EventHorseApproved     AuditEvent = "horse_approved"
	EventHorseRejected     AuditEvent = "horse_rejected"
	EventNameChangeStaged  AuditEvent = "name_change_staged"
	EventNameChangeApplied AuditEvent = "name_change_applied"
	EventNameChangeDropped AuditEvent = "name_change_dropped"

	// Transfer events
	EventTransferRequested AuditEvent = "transfer_requested"
	EventTransferApproved  AuditEvent = "transfer_approved"
	EventTransferRejected  AuditEvent = "transfer_rejected"
	EventOwnershipAssigned AuditEvent = "ownership_assigned"

	// Reconciliation events
	EventMemberSynced       AuditEvent = "member_synced"
	EventMemberEnabled      AuditEvent = "member_enabled"
	EventMemberDisabled     AuditEvent = "member_disabled"
	EventRenewalDateChanged AuditEvent = "renewal_date_changed"
	EventLevelChanged       AuditEvent = "level_changed"
	EventWebhookIgnored     AuditEvent = "webhook_ignored"

	// Directory events
	EventMemberRegistered  AuditEvent = "member_registered"
	EventMemberDeactivated AuditEvent = "member_deactivated"
	EventMemberReactivated AuditEvent = "member_reactivated"
	EventMemberDeleted     AuditEvent = "member_deleted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventHorseSubmitted:    CategoryRegistry,
	EventHorseApproved:     CategoryRegistry,
	EventHorseRejected:     CategoryRegistry,
	EventNameChangeStaged:  CategoryRegistry,
	EventNameChangeApplied: CategoryRegistry,
	EventNameChangeDropped: CategoryRegistry,
	EventTransferRequested: CategoryRegistry,
	EventTransferApproved:  CategoryRegistry,
	EventTransferRejected:  CategoryRegistry,
	EventOwnershipAssigned: CategoryRegistry,

	EventMemberSynced:       CategorySync,
	EventMemberEnabled:      CategorySync,
	EventMemberDisabled:     CategorySync,
	EventRenewalDateChanged: CategorySync,
	EventLevelChanged:       CategorySync,
	EventWebhookIgnored:     CategorySync,

	EventMemberRegistered:  CategoryOperations,
	EventMemberDeactivated: CategoryOperations,
	EventMemberReactivated: CategoryOperations,
	EventMemberDeleted:     CategoryOperations,
}

// CategoryFor returns the category for an event name, defaulting to
// operations for names introduced without a mapping.
func CategoryFor(name AuditEvent) EventCategory {
	if c, ok := eventCategories[name]; ok {
		return c
	}
	return CategoryOperations
}
