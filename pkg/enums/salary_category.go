package enums

import "fmt"

// SalaryCategory is the seniority band of a salary reference rate.
type SalaryCategory string

const (
	SalaryCategoryA SalaryCategory = "A"
	SalaryCategoryB SalaryCategory = "B"
	SalaryCategoryC SalaryCategory = "C"
)

var validSalaryCategories = []SalaryCategory{
	SalaryCategoryA,
	SalaryCategoryB,
	SalaryCategoryC,
}

// String implements fmt.Stringer.
func (c SalaryCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known SalaryCategory.
func (c SalaryCategory) IsValid() bool {
	for _, candidate := range validSalaryCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseSalaryCategory converts raw input into a SalaryCategory.
func ParseSalaryCategory(value string) (SalaryCategory, error) {
	for _, candidate := range validSalaryCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid salary category %q", value)
}
