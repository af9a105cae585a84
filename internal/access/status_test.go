package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openmakers/badgegate/internal/models"
)

func newStatusReporter(t *testing.T) (*StatusReporter, *fakeAssignments) {
	t.Helper()

	badges := &fakeBadges{badges: []models.Badge{{ID: 3, Name: "Door", TextID: "door"}}}
	assignments := newFakeAssignments()
	reporter, err := NewStatusReporter(badges, assignments, DefaultSettings())
	require.NoError(t, err)
	return reporter, assignments
}

func TestStatusReportBlocksWithoutDoorBadge(t *testing.T) {
	reporter, assignments := newStatusReporter(t)
	member := newMember()
	ctx := context.Background()

	report, err := reporter.Summarize(ctx, member)
	require.NoError(t, err)
	require.Equal(t, StateBlocked, report.Summary.State)
	require.Equal(t, "Key Access Blocked", report.Summary.Label)
	require.Contains(t, report.Summary.BlockingMessages, "Door badge missing or inactive.")
	require.Len(t, report.Items, 6)

	assignments.add(member.ID, 3, models.BadgeRequestStatusActive)

	report, err = reporter.Summarize(ctx, member)
	require.NoError(t, err)
	require.Equal(t, StateOK, report.Summary.State)
	require.Equal(t, "No blocking flags detected.", report.Summary.Message)
	require.Empty(t, report.Summary.BlockingMessages)

	member.ManualPause = true
	report, err = reporter.Summarize(ctx, member)
	require.NoError(t, err)
	require.Equal(t, StateBlocked, report.Summary.State)
	require.Equal(t, "Manual pause prevents access.", report.Summary.Message)
	require.Contains(t, report.Summary.BlockingMessages, "Manual pause prevents access.")
}

func TestStatusReportListsEveryBlockingCondition(t *testing.T) {
	reporter, _ := newStatusReporter(t)
	member := newMember()
	member.ChargebeePause = true
	member.PaymentFailed = true
	member.AccessOverride = models.OverrideDeny
	member.Roles = []string{"guest"}

	report, err := reporter.Summarize(context.Background(), member)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Chargebee payment pause is active.",
		"Latest membership payment failed.",
		"Access override denies entry.",
		"Add one of: member, services, instructor",
		"Door badge missing or inactive.",
	}, report.Summary.BlockingMessages)

	roles := report.Items[4]
	require.Equal(t, "allowed_roles", roles.ID)
	require.Equal(t, "guest", roles.Details)
}

func TestStatusReportServicesRoleSkipsDoorBadge(t *testing.T) {
	reporter, _ := newStatusReporter(t)
	member := newMember()
	member.Roles = []string{"services"}

	report, err := reporter.Summarize(context.Background(), member)
	require.NoError(t, err)
	require.Equal(t, StateOK, report.Summary.State)
	require.Equal(t, "Member has an access role (services).", report.Items[4].Message)
	require.Equal(t, "Door badge is active.", report.Items[5].Message)
}

func TestStatusReportRequiresMember(t *testing.T) {
	reporter, _ := newStatusReporter(t)
	_, err := reporter.Summarize(context.Background(), nil)
	require.Error(t, err)
}
