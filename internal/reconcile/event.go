// Package reconcile keeps the local member directory consistent with the
// external membership platform. Events arrive as webhooks and are processed
// idempotently: replaying any event converges on the same state.
package reconcile

import (
	"encoding/json"

	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
)

// Webhook actions emitted by the membership platform.
const (
	ActionEnabled            = "Enabled"
	ActionDisabled           = "Disabled"
	ActionStatusChanged      = "StatusChanged"
	ActionRenewalDateChanged = "RenewalDateChanged"
	ActionLevelChanged       = "LevelChanged"
)

// MessageTypeMembership is the only message type the engine acts on.
const MessageTypeMembership = "Membership"

// Membership status codes as the platform reports them.
const (
	MembershipActive         = 1
	MembershipLapsed         = 2
	MembershipPendingRenewal = 3
	MembershipPendingNew     = 20
	MembershipPendingUpgrade = 30
)

// Event is the webhook payload. Field names follow the platform's wire
// format, including the dotted parameter keys.
type Event struct {
	MessageType string     `json:"MessageType"`
	Parameters  Parameters `json:"Parameters"`
}

// Parameters carries the membership event details. ContactID and the status
// code arrive as either JSON numbers or strings depending on the delivery
// channel, hence the flexible decoding.
type Parameters struct {
	Action    string    `json:"Action"`
	ContactID flexInt64 `json:"Contact.Id"`
	LevelID   flexInt64 `json:"Membership.LevelId"`
	Status    flexInt64 `json:"Membership.Status"`
}

// ContactMemberID converts the external contact id into the local member id
// space, rejecting missing or non-positive ids.
func (p Parameters) ContactMemberID() (id.MemberID, error) {
	if p.ContactID <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "contact id is missing")
	}
	return id.MemberID(p.ContactID), nil
}

// flexInt64 decodes a JSON number or numeric string into an int64.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	// Some deliveries carry explicit nulls for parameters that don't apply
	// to the action; treat them the same as an absent field.
	if string(data) == "null" {
		*f = 0
		return nil
	}
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		data = []byte(s)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		return err
	}
	*f = flexInt64(v)
	return nil
}
