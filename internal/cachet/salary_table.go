package cachet

import (
	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
)

// SalaryTable indexes weekly reference rates by job title and category.
type SalaryTable map[string]map[enums.SalaryCategory]int64

func NewSalaryTable(rates []models.SalaryRate) SalaryTable {
	table := SalaryTable{}
	for _, rate := range rates {
		byCategory, ok := table[rate.JobTitle]
		if !ok {
			byCategory = map[enums.SalaryCategory]int64{}
			table[rate.JobTitle] = byCategory
		}
		byCategory[rate.Category] = rate.WeeklyRate
	}
	return table
}

// Rate returns the weekly rate, or 0 when the job or category is unknown.
func (t SalaryTable) Rate(jobTitle string, category enums.SalaryCategory) int64 {
	if t == nil {
		return 0
	}
	return t[jobTitle][category]
}
