package access

import (
	"strings"

	"github.com/openmakers/badgegate/internal/models"
)

// IdentifierType selects how a member is resolved.
type IdentifierType string

// Supported identifier types.
const (
	IdentifierUUID   IdentifierType = "uuid"
	IdentifierSerial IdentifierType = "serial"
	IdentifierEmail  IdentifierType = "email"
)

// Valid reports whether t names a supported identifier type.
func (t IdentifierType) Valid() bool {
	switch t {
	case IdentifierUUID, IdentifierSerial, IdentifierEmail:
		return true
	default:
		return false
	}
}

// Kind classifies the outcome of an evaluation.
type Kind string

// Outcome kinds.
const (
	KindGranted    Kind = "granted"
	KindNotFound   Kind = "not_found"
	KindBadRequest Kind = "bad_request"
	KindForbidden  Kind = "forbidden"
)

// RequestContext carries the caller-supplied tags of an access request.
type RequestContext struct {
	Source string
	Method string
	Note   string
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Allowed bool
	Kind    Kind
	// Reason is the system note; empty for grants.
	Reason string
	// Note is the composed note that was logged.
	Note   string
	Member *models.Member
	Badge  *models.Badge
	Source string
	Method string
	Logged bool
}

// Grant is the response view of an allowed decision.
type Grant struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Permission string  `json:"permission"`
	Access     string  `json:"access"`
	UUID       *string `json:"uuid"`
	Source     string  `json:"source"`
	Method     string  `json:"method"`
}

// Grant renders the decision as a Grant. Member fields are null when no member was resolved.
func (d Decision) Grant() Grant {
	grant := Grant{
		Access: "true",
		Source: d.Source,
		Method: d.Method,
	}
	if d.Badge != nil {
		grant.Permission = strings.ToLower(d.Badge.Name)
	}
	if d.Member != nil {
		first, last, uuid := d.Member.FirstName, d.Member.LastName, d.Member.UUID
		grant.FirstName = &first
		grant.LastName = &last
		grant.UUID = &uuid
	}
	return grant
}

// DecisionEntry is the persisted form of a decision.
type DecisionEntry struct {
	MemberID *uint
	BadgeID  *uint
	Result   bool
	Note     string
	Source   string
	Method   string
}

// ComposeNote joins the system note and the caller note with ". ", omitting whichever is empty.
func ComposeNote(system, caller string) string {
	switch {
	case caller == "":
		return system
	case system == "":
		return caller
	default:
		return system + ". " + caller
	}
}
