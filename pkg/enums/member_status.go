package enums

import "fmt"

// MemberStatus is the standing of a member within the association.
type MemberStatus string

const (
	MemberStatusActive     MemberStatus = "active_member"
	MemberStatusHonorary   MemberStatus = "honorary_member"
	MemberStatusBenefactor MemberStatus = "benefactor_member"
	MemberStatusInactive   MemberStatus = "inactive_member"
	MemberStatusSanctioned MemberStatus = "sanctioned"
)

var validMemberStatuses = []MemberStatus{
	MemberStatusActive,
	MemberStatusHonorary,
	MemberStatusBenefactor,
	MemberStatusInactive,
	MemberStatusSanctioned,
}

var memberStatusLabels = map[MemberStatus]string{
	MemberStatusActive:     "Membre Actif",
	MemberStatusHonorary:   "Membre d'Honneur",
	MemberStatusBenefactor: "Membre Bienfaiteur",
	MemberStatusInactive:   "Membre Inactif",
	MemberStatusSanctioned: "Sanctionné",
}

// String implements fmt.Stringer.
func (m MemberStatus) String() string {
	return string(m)
}

// Label returns the French display label used on the portal.
func (m MemberStatus) Label() string {
	return memberStatusLabels[m]
}

// IsValid reports whether the value matches a known MemberStatus.
func (m MemberStatus) IsValid() bool {
	for _, candidate := range validMemberStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsSpecial reports whether the status is granted rather than earned through an application.
func (m MemberStatus) IsSpecial() bool {
	return m == MemberStatusHonorary || m == MemberStatusBenefactor
}

// ParseMemberStatus converts raw input into a MemberStatus.
func ParseMemberStatus(value string) (MemberStatus, error) {
	for _, candidate := range validMemberStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member status %q", value)
}
