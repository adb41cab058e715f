package artifact

import "strings"

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// sanitizeSessionID converts a session id to a single safe path segment.
// Separators become "-" so an id can never nest or escape the output dir.
func sanitizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return "session"
	}
	result := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		switch id[i] {
		case '/', '\\':
			result[i] = '-'
		default:
			result[i] = id[i]
		}
	}
	return strings.ReplaceAll(string(result), "..", "-")
}
