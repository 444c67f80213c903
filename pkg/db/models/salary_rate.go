package models

import "github.com/retechci/retechci-backend/pkg/enums"

// SalaryRate is one seniority band of the weekly salary reference for a job title.
type SalaryRate struct {
	JobTitle    string               `gorm:"column:job_title;primaryKey"`
	Category    enums.SalaryCategory `gorm:"column:category;primaryKey"`
	Description string               `gorm:"column:description;not null"`
	WeeklyRate  int64                `gorm:"column:weekly_rate;not null"`
}

func (SalaryRate) TableName() string {
	return "salary_rates"
}
