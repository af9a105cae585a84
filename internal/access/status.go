package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openmakers/badgegate/internal/catalog"
	"github.com/openmakers/badgegate/internal/models"
)

// DoorBadgeCode is the badge whose active assignment the status report requires.
const DoorBadgeCode = "door"

// StatusState is the traffic-light state of a status item or summary.
type StatusState string

// Status states.
const (
	StateOK      StatusState = "ok"
	StateBlocked StatusState = "blocked"
)

// StatusItem is one condition of the status report.
type StatusItem struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	State        StatusState `json:"state"`
	Message      string      `json:"message"`
	BlocksAccess bool        `json:"blocks_access"`
	Details      string      `json:"details,omitempty"`
}

// StatusSummary condenses the report items.
type StatusSummary struct {
	State            StatusState `json:"state"`
	Label            string      `json:"label"`
	Message          string      `json:"message"`
	BlockingMessages []string    `json:"blocking_messages"`
}

// StatusReport lists every condition that affects a member's key access.
type StatusReport struct {
	Summary StatusSummary `json:"summary"`
	Items   []StatusItem  `json:"items"`
}

// StatusReporter explains a member's access readiness for administrators. Unlike the evaluator it
// evaluates every condition instead of stopping at the first failure.
type StatusReporter struct {
	badges      BadgeCatalog
	assignments AssignmentChecker
	roles       []string
}

// NewStatusReporter constructs a StatusReporter.
func NewStatusReporter(badges BadgeCatalog, assignments AssignmentChecker, settings Settings) (*StatusReporter, error) {
	if badges == nil || assignments == nil {
		return nil, errors.New("status reporter: badge catalog and assignment checker are required")
	}
	return &StatusReporter{
		badges:      badges,
		assignments: assignments,
		roles:       settings.Roles(),
	}, nil
}

// Summarize builds the status report for the member.
func (r *StatusReporter) Summarize(ctx context.Context, member *models.Member) (StatusReport, error) {
	if member == nil {
		return StatusReport{}, errors.New("status reporter: member is required")
	}

	items := []StatusItem{
		flagItem("chargebee_pause", "Chargebee Pause", member.ChargebeePause,
			"Chargebee payment pause is active.", "Chargebee billing is active."),
		flagItem("manual_pause", "Manual Pause", member.ManualPause,
			"Manual pause prevents access.", "Manual pause disabled."),
		flagItem("payment_failed", "Payment Failure", member.PaymentFailed,
			"Latest membership payment failed.", "No payment failures."),
		flagItem("access_override", "Access Override", member.OverrideDenied(),
			"Access override denies entry.", "No access override."),
		r.roleItem(member),
	}

	door, err := r.doorBadgeItem(ctx, member)
	if err != nil {
		return StatusReport{}, err
	}
	items = append(items, door)

	summary := StatusSummary{
		State:            StateOK,
		Label:            "Key Access Ready",
		Message:          "No blocking flags detected.",
		BlockingMessages: []string{},
	}
	for _, item := range items {
		if item.BlocksAccess {
			summary.BlockingMessages = append(summary.BlockingMessages, item.Message)
		}
	}
	if len(summary.BlockingMessages) > 0 {
		summary.State = StateBlocked
		summary.Label = "Key Access Blocked"
		summary.Message = summary.BlockingMessages[0]
	}

	return StatusReport{Summary: summary, Items: items}, nil
}

func flagItem(id, label string, flagged bool, blockedMessage, okMessage string) StatusItem {
	item := StatusItem{ID: id, Label: label, State: StateOK, Message: okMessage}
	if flagged {
		item.State = StateBlocked
		item.Message = blockedMessage
		item.BlocksAccess = true
	}
	return item
}

func (r *StatusReporter) roleItem(member *models.Member) StatusItem {
	var held []string
	for _, role := range r.roles {
		if member.HasRole(role) {
			held = append(held, role)
		}
	}

	item := StatusItem{
		ID:      "allowed_roles",
		Label:   "Maker Roles",
		State:   StateOK,
		Details: formatRoles(member.Roles),
	}
	if len(held) > 0 {
		item.Message = fmt.Sprintf("Member has an access role (%s).", formatRoles(held))
		return item
	}

	item.State = StateBlocked
	item.BlocksAccess = true
	item.Message = fmt.Sprintf("Add one of: %s", formatRoles(r.roles))
	return item
}

func (r *StatusReporter) doorBadgeItem(ctx context.Context, member *models.Member) (StatusItem, error) {
	item := StatusItem{ID: "door_badge", Label: "Door Access"}

	active, err := r.hasActiveBadge(ctx, member, DoorBadgeCode)
	if err != nil {
		return StatusItem{}, err
	}

	if active {
		item.State = StateOK
		item.Message = "Door badge is active."
		return item, nil
	}
	item.State = StateBlocked
	item.BlocksAccess = true
	item.Message = "Door badge missing or inactive."
	return item, nil
}

func (r *StatusReporter) hasActiveBadge(ctx context.Context, member *models.Member, code string) (bool, error) {
	// Services staff open doors without a badge request.
	if member.HasRole("services") {
		return true, nil
	}

	badge, err := r.badges.Lookup(ctx, code)
	if errors.Is(err, catalog.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("status reporter: lookup badge: %w", err)
	}

	held, err := r.assignments.Exists(ctx, member.ID, badge.ID, true)
	if err != nil {
		return false, fmt.Errorf("status reporter: check assignment: %w", err)
	}
	return held, nil
}

func formatRoles(roles []string) string {
	if len(roles) == 0 {
		return "none"
	}
	return strings.Join(roles, ", ")
}
