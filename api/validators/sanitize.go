package validators

import "strings"

// Free-text fields may not carry markup or SQL comment tokens.
var unsafeTokens = []string{"<", ">", `"`, "'", ";", "--"}

// IsSafeText reports whether s is free of the forbidden tokens.
func IsSafeText(s string) bool {
	for _, tok := range unsafeTokens {
		if strings.Contains(s, tok) {
			return false
		}
	}
	return true
}
