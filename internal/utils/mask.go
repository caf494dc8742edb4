package utils

import "fmt"

// MaskSecret hides a secret value for logging while flagging weak settings.
func MaskSecret(secret, insecureDefault string) string {
	switch {
	case secret == "":
		return "--- EMPTY (!!! WARNING: secret is empty !!!) ---"
	case secret == insecureDefault:
		return insecureDefault + " (!!! WARNING: using default secret !!!)"
	case len(secret) < 16:
		return fmt.Sprintf("*** MASKED (short: %d chars) ***", len(secret))
	default:
		return "*** MASKED ***"
	}
}
