package models

import "github.com/retechci/retechci-backend/pkg/enums"

// Film is one entry of a member's filmography.
type Film struct {
	Title       string         `json:"title"`
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	Role        string         `json:"role"`
	Type        enums.FilmType `json:"type"`
	ImpactScore int            `json:"impact_score"`
	BoxOffice   *int64         `json:"box_office,omitempty"`
	Audience    *int64         `json:"audience,omitempty"`
}

// Normalize drops box office figures on anything but features and audience
// figures on anything but TV series.
func (f Film) Normalize() Film {
	if f.Type != enums.FilmTypeFeature {
		f.BoxOffice = nil
	}
	if f.Type != enums.FilmTypeTVSeries {
		f.Audience = nil
	}
	return f
}
