package metrics

// Namespace prefixes every metric this service exports.
const Namespace = "retechci"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
