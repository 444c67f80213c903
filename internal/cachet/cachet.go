// Package cachet scores a technician's reputation from their filmography and
// derives an advisory fee estimate from the salary reference table. Nothing in
// here fails: bad input degrades to a zero score or a zero estimate.
package cachet

import (
	"math"

	"github.com/retechci/retechci-backend/pkg/db/models"
	"github.com/retechci/retechci-backend/pkg/enums"
)

const (
	minImpact = 1
	maxImpact = 5

	projectWeeks       = 4
	boxOfficeStep      = 200000.0
	audienceStep       = 1000000.0
	bonusPerStep       = 0.1
	MaxMultiplier      = 3.5
	estimateRoundingTo = 10000.0
)

// Level is a reputation band.
type Level struct {
	Rank     int     `json:"rank"`
	Label    string  `json:"label"`
	LabelFR  string  `json:"label_fr"`
	MinScore float64 `json:"min_score"`
}

// levels is ordered from highest to lowest threshold.
var levels = []Level{
	{Rank: 4, Label: "Highly Sought", LabelFR: "Très Recherché", MinScore: 75},
	{Rank: 3, Label: "Expert Profile", LabelFR: "Profil Expert", MinScore: 50},
	{Rank: 2, Label: "Experienced", LabelFR: "Expérimenté", MinScore: 25},
	{Rank: 1, Label: "Confirmed", LabelFR: "Confirmé", MinScore: 0},
}

// Score sums impact times role weight over the filmography.
func Score(films []models.Film) float64 {
	var total float64
	for _, film := range films {
		impact := film.ImpactScore
		if impact < minImpact || impact > maxImpact {
			impact = minImpact
		}
		total += float64(impact) * RoleWeight(film.Role)
	}
	return total
}

// LevelFor maps a score onto its band; anything below 25 (negative included) is Confirmed.
func LevelFor(score float64) Level {
	for _, level := range levels[:len(levels)-1] {
		if score >= level.MinScore {
			return level
		}
	}
	return levels[len(levels)-1]
}

// Estimate returns the advisory project fee for a specialty, in XOF rounded to
// the nearest 10 000. It is 0 when the specialty has no salary reference.
func Estimate(specialty string, films []models.Film, salaries SalaryTable) int64 {
	base := BaseProjectSalary(specialty, salaries)
	if base == 0 {
		return 0
	}
	estimate := float64(base) * Multiplier(films)
	return int64(math.Round(estimate/estimateRoundingTo) * estimateRoundingTo)
}

// BaseProjectSalary is four weeks at the category B rate of the specialty's job title.
func BaseProjectSalary(specialty string, salaries SalaryTable) int64 {
	title, ok := JobTitleFor(specialty)
	if !ok {
		return 0
	}
	weekly := salaries.Rate(title, enums.SalaryCategoryB)
	if weekly <= 0 {
		return 0
	}
	return weekly * projectWeeks
}

// Multiplier is the capped reputation bonus from box office and audience figures.
// Negative figures are ignored.
func Multiplier(films []models.Film) float64 {
	var boxOffice, audience float64
	for _, film := range films {
		if film.BoxOffice != nil && *film.BoxOffice > 0 {
			boxOffice += float64(*film.BoxOffice)
		}
		if film.Audience != nil && *film.Audience > 0 {
			audience += float64(*film.Audience)
		}
	}
	m := 1 + (boxOffice/boxOfficeStep)*bonusPerStep + (audience/audienceStep)*bonusPerStep
	return math.Min(m, MaxMultiplier)
}

// Report bundles everything the directory shows for a technician.
type Report struct {
	Score      float64 `json:"score"`
	Level      Level   `json:"level"`
	Estimate   int64   `json:"estimate"`
	JobTitle   string  `json:"job_title,omitempty"`
	Multiplier float64 `json:"multiplier"`
	// Advisory is always true; the estimate is indicative and non-contractual.
	Advisory bool `json:"advisory"`
}

// Evaluate scores a member against the salary reference.
func Evaluate(member models.Member, salaries SalaryTable) Report {
	score := Score(member.Filmography)
	title, _ := JobTitleFor(member.Specialty)
	return Report{
		Score:      score,
		Level:      LevelFor(score),
		Estimate:   Estimate(member.Specialty, member.Filmography, salaries),
		JobTitle:   title,
		Multiplier: Multiplier(member.Filmography),
		Advisory:   true,
	}
}
