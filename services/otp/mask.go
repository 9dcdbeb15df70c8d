package otp

import "strings"

// MaskIdentity redacts an identity for log output. Emails keep their first
// and last local-part runes and the full domain; other handles keep the
// first and last runes only. Log fields must never carry a raw identity.
func MaskIdentity(identity string) string {
	if identity == "" {
		return ""
	}

	if at := strings.LastIndex(identity, "@"); at > 0 {
		return maskPart(identity[:at]) + "@" + identity[at+1:]
	}

	return maskPart(identity)
}

func maskPart(part string) string {
	runes := []rune(part)
	if len(runes) <= 2 {
		return "***"
	}
	return string(runes[0]) + "***" + string(runes[len(runes)-1])
}
