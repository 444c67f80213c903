package cachet

import "strings"

const defaultRoleWeight = 1.0

// roleWeights is keyed by lower-cased crew role as written in filmographies.
// Heads of department weigh 3, operators and chiefs 2, assistants 1.5.
var roleWeights = map[string]float64{
	"directeur de la photographie":  3,
	"directrice de la photographie": 3,
	"chef opérateur":                3,
	"chef opératrice":               3,
	"réalisateur":                   3,
	"réalisatrice":                  3,
	"directeur de production":       3,
	"directrice de production":      3,
	"chef monteur":                  3,
	"cheffe monteuse":               3,
	"chef preneur de son":           3,
	"cheffe preneuse de son":        3,
	"ingénieur du son":              3,
	"chef décorateur":               3,
	"cheffe décoratrice":            3,

	"cadreur":              2,
	"cadreuse":             2,
	"chef électricien":     2,
	"cheffe électricienne": 2,
	"chef machiniste":      2,
	"cheffe machiniste":    2,
	"monteur":              2,
	"monteuse":             2,
	"scripte":              2,
	"étalonneur":           2,
	"étalonneuse":          2,
	"mixeur":               2,
	"mixeuse":              2,

	"assistant caméra":        1.5,
	"assistante caméra":       1.5,
	"assistant réalisateur":   1.5,
	"assistante réalisatrice": 1.5,
	"assistant monteur":       1.5,
	"assistante monteuse":     1.5,
	"assistant son":           1.5,
	"assistante son":          1.5,
	"perchman":                1.5,
	"électricien":             1.5,
	"électricienne":           1.5,
	"machiniste":              1.5,
}

// RoleWeight returns the multiplier for a crew role; unknown roles weigh 1.
func RoleWeight(role string) float64 {
	if w, ok := roleWeights[strings.ToLower(strings.TrimSpace(role))]; ok {
		return w
	}
	return defaultRoleWeight
}

// specialtyJobTitles maps a member specialty onto the salary reference job title.
var specialtyJobTitles = map[string]string{
	"Directrice de la photographie": "Directeur photo / Chef OPV",
	"Ingénieur du son":              "Chef OPS / Ingénieur du son",
	"Monteuse":                      "Chef monteur",
	"Électricien de plateau":        "Chef électricien",
	"Scripte":                       "Scripte",
	"Machiniste":                    "Chef machiniste",
}

// JobTitleFor resolves the salary reference job title for a specialty.
func JobTitleFor(specialty string) (string, bool) {
	title, ok := specialtyJobTitles[strings.TrimSpace(specialty)]
	return title, ok
}
