package engine

import "strings"

// ReplaceVariables performs a literal, non-recursive, global replace of
// every {{name}} token with the corresponding value. Unknown tokens are left
// verbatim so template authors are never broken by rendering order.
func ReplaceVariables(text string, vars map[string]string) string {
	result := text
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
