package desktop

import "strings"

// fieldCodes are the Exec placeholders a launcher substitutes at run time.
var fieldCodes = []string{
	"%f", "%F", "%u", "%U",
	"%d", "%D", "%n", "%N",
	"%i", "%c", "%k", "%v", "%m",
}

// SanitizeExec strips field codes from a launch command and collapses
// runs of whitespace to a single space.
func SanitizeExec(raw string) string {
	cmd := raw
	for _, code := range fieldCodes {
		cmd = strings.ReplaceAll(cmd, code, "")
	}
	return strings.Join(strings.Fields(cmd), " ")
}
