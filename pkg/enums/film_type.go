package enums

import "fmt"

// FilmType classifies a production in a member's filmography.
type FilmType string

const (
	FilmTypeFeature     FilmType = "feature"
	FilmTypeTVSeries    FilmType = "tv_series"
	FilmTypeAd          FilmType = "ad"
	FilmTypeShortFilm   FilmType = "short_film"
	FilmTypeDocumentary FilmType = "documentary"
)

var validFilmTypes = []FilmType{
	FilmTypeFeature,
	FilmTypeTVSeries,
	FilmTypeAd,
	FilmTypeShortFilm,
	FilmTypeDocumentary,
}

// String implements fmt.Stringer.
func (f FilmType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FilmType.
func (f FilmType) IsValid() bool {
	for _, candidate := range validFilmTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// FilmTypes lists every known film type.
func FilmTypes() []FilmType {
	out := make([]FilmType, len(validFilmTypes))
	copy(out, validFilmTypes)
	return out
}

// ParseFilmType converts raw input into a FilmType.
func ParseFilmType(value string) (FilmType, error) {
	for _, candidate := range validFilmTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid film type %q", value)
}
