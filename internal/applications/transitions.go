package applications

import (
	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/pkg/enums"
)

type transition struct {
	name       string
	capability access.Capability
	from       enums.ApplicationStatus
	to         enums.ApplicationStatus
}

var (
	approval = transition{
		name:       "approve",
		capability: access.ApproveApplication,
		from:       enums.ApplicationStatusPending,
		to:         enums.ApplicationStatusApprovedByBoard,
	}
	invitation = transition{
		name:       "invite",
		capability: access.InviteApplicant,
		from:       enums.ApplicationStatusApprovedByBoard,
		to:         enums.ApplicationStatusInvitationSent,
	}
	activation = transition{
		name:       "activate",
		capability: access.ActivateApplication,
		from:       enums.ApplicationStatusInvitationSent,
		to:         enums.ApplicationStatusActivated,
	}
)
