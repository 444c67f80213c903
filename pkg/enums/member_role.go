package enums

import "fmt"

// MemberRole is the office a member holds in the association.
type MemberRole string

const (
	MemberRoleExecutiveDirector            MemberRole = "executive_director"
	MemberRoleBoardPresident               MemberRole = "board_president"
	MemberRoleSecretaryGeneral             MemberRole = "secretary_general"
	MemberRoleDeputySecretaryGeneral       MemberRole = "deputy_secretary_general"
	MemberRoleCommunicationSecretary       MemberRole = "communication_secretary"
	MemberRoleDeputyCommunicationSecretary MemberRole = "deputy_communication_secretary"
	MemberRoleTreasurer                    MemberRole = "treasurer"
	MemberRoleDeputyTreasurer              MemberRole = "deputy_treasurer"
	MemberRoleMember                       MemberRole = "member"
)

var validMemberRoles = []MemberRole{
	MemberRoleExecutiveDirector,
	MemberRoleBoardPresident,
	MemberRoleSecretaryGeneral,
	MemberRoleDeputySecretaryGeneral,
	MemberRoleCommunicationSecretary,
	MemberRoleDeputyCommunicationSecretary,
	MemberRoleTreasurer,
	MemberRoleDeputyTreasurer,
	MemberRoleMember,
}

var memberRoleLabels = map[MemberRole]string{
	MemberRoleExecutiveDirector:            "Directeur Exécutif",
	MemberRoleBoardPresident:               "Président du CA",
	MemberRoleSecretaryGeneral:             "Secrétaire Général",
	MemberRoleDeputySecretaryGeneral:       "Secrétaire Général Adjoint",
	MemberRoleCommunicationSecretary:       "Secrétaire à la Communication",
	MemberRoleDeputyCommunicationSecretary: "Secrétaire Adjoint à la Communication",
	MemberRoleTreasurer:                    "Trésorière",
	MemberRoleDeputyTreasurer:              "Trésorière Adjointe",
	MemberRoleMember:                       "Membre",
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// Label returns the French display label used on the portal.
func (m MemberRole) Label() string {
	return memberRoleLabels[m]
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}

// MemberRoles lists every office, most senior first.
func MemberRoles() []MemberRole {
	out := make([]MemberRole, len(validMemberRoles))
	copy(out, validMemberRoles)
	return out
}
