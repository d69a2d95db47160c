package creator

import "strings"

var criteriaEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Equals builds the criteria expression `(field == "value")` with value
// quoted so caller input cannot alter the expression.
func Equals(field, value string) string {
	return "(" + field + ` == "` + criteriaEscaper.Replace(value) + `")`
}
