package bridge

import "strings"

// ExtractName scans assistant-produced text for a self-introduced caller
// name, taking whatever follows the last occurrence of "name". This is a
// best-effort text heuristic, not authoritative: it can miss a name or
// capture surrounding words, and callers must treat the result as a hint.
func ExtractName(text string) (string, bool) {
	lower := strings.ToLower(text)
	idx := strings.LastIndex(lower, "name")
	if idx < 0 {
		return "", false
	}

	rest := text[idx+len("name"):]
	fields := strings.Fields(strings.TrimLeft(rest, " :,-'\""))
	if len(fields) > 0 && strings.EqualFold(fields[0], "is") {
		fields = fields[1:]
	}

	name := strings.Trim(strings.Join(fields, " "), " .,!?\"'")
	if name == "" {
		return "", false
	}
	return name, true
}
