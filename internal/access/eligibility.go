package access

import "github.com/openmakers/badgegate/internal/models"

// Denial reasons recorded as the system note of a decision.
const (
	ReasonNoUser                = "No user found."
	ReasonInvalidIdentifierType = "Invalid identifier type."
	ReasonPaymentPause          = "User account on Chargebee payment pause."
	ReasonManualPause           = "User account on manual pause."
	ReasonPaymentFailed         = "User account has payment failed status."
	ReasonOverrideDeny          = "User access explicitly denied by override."
	ReasonInvalidRole           = "User does not have a valid role for access."
	ReasonInvalidPermission     = "Invalid permission ID."
	ReasonNoActiveBadge         = "No active badge request found."
	ReasonNoPermission          = "User does not have the specified permission."
)

// StatusDenial runs the member status checks in order and returns the reason of the first one
// that fails, or an empty string when the member is eligible. It does not consult
// CheckIdentityStatus; callers decide whether status checks apply at all.
func StatusDenial(member *models.Member, settings Settings) string {
	if member == nil {
		return ""
	}

	if settings.CheckPausePayment {
		switch {
		case member.ChargebeePause:
			return ReasonPaymentPause
		case member.ManualPause:
			return ReasonManualPause
		case member.PaymentFailed:
			return ReasonPaymentFailed
		}
	}

	if member.OverrideDenied() {
		return ReasonOverrideDeny
	}

	if !hasAnyRole(member, settings.Roles()) {
		return ReasonInvalidRole
	}
	return ""
}

func hasAnyRole(member *models.Member, roles []string) bool {
	for _, role := range roles {
		if member.HasRole(role) {
			return true
		}
	}
	return false
}
