// Package access maps association offices onto the administrative
// capabilities they grant.
package access

import (
	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
)

// Capability is an administrative right checked before an operation runs.
type Capability string

const (
	ViewApplications    Capability = "view_applications"
	ApproveApplication  Capability = "approve_application"
	InviteApplicant     Capability = "invite_applicant"
	ActivateApplication Capability = "activate_application"
	SanctionMember      Capability = "sanction_member"
	ChangeMemberStatus  Capability = "change_member_status"
	ChangeMemberRole    Capability = "change_member_role"
	AddSpecialMember    Capability = "add_special_member"
	ManageFinances      Capability = "manage_finances"
	ViewFinances        Capability = "view_finances"
	ReadMessages        Capability = "read_messages"
)

var grants = map[enums.MemberRole][]Capability{
	enums.MemberRoleBoardPresident: {
		ViewApplications,
		ApproveApplication,
		SanctionMember,
		ViewFinances,
		ReadMessages,
	},
	enums.MemberRoleExecutiveDirector: {
		ViewApplications,
		InviteApplicant,
		ActivateApplication,
		ChangeMemberStatus,
		ChangeMemberRole,
		AddSpecialMember,
		ManageFinances,
		ViewFinances,
		ReadMessages,
	},
	enums.MemberRoleTreasurer:                    {ManageFinances, ViewFinances},
	enums.MemberRoleDeputyTreasurer:              {ViewFinances},
	enums.MemberRoleSecretaryGeneral:             {ViewFinances},
	enums.MemberRoleDeputySecretaryGeneral:       {ViewFinances},
	enums.MemberRoleCommunicationSecretary:       {ViewFinances},
	enums.MemberRoleDeputyCommunicationSecretary: {ViewFinances},
}

// Allowed reports whether role holds capability. Unknown roles hold nothing.
func Allowed(role enums.MemberRole, capability Capability) bool {
	for _, granted := range grants[role] {
		if granted == capability {
			return true
		}
	}
	return false
}

// Check returns a FORBIDDEN error when role lacks capability.
func Check(role enums.MemberRole, capability Capability) error {
	if Allowed(role, capability) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeForbidden, "role %q may not %s", role, capability).
		WithDetails(map[string]any{"capability": string(capability)})
}

// Capabilities lists what role may do, in declaration order.
func Capabilities(role enums.MemberRole) []Capability {
	out := make([]Capability, len(grants[role]))
	copy(out, grants[role])
	return out
}

// Actor is the authenticated member an operation runs on behalf of.
type Actor struct {
	MemberID uuid.UUID
	Role     enums.MemberRole
}

// Can reports whether the actor's role holds capability.
func (a Actor) Can(capability Capability) bool {
	return Allowed(a.Role, capability)
}
