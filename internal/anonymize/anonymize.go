// Package anonymize turns candidate identifiers and contact details into
// display-safe values. Nothing here is cryptographic.
package anonymize

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

const (
	aliasPrefix   = "NE Can-"
	aliasSpace    = 99
	emailFallback = "************@**.**"
	domainMask    = "**"
)

// StableHash is the 31x rolling hash over UTF-16 code units, wrapped to a
// signed 32-bit value and made non-negative.
func StableHash(s string) uint32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(unit)
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

// CandidateAlias returns "NE Can-NN" with NN in 01..99. Different ids may
// share an alias.
func CandidateAlias(id string) string {
	if id == "" {
		id = "unknown"
	}
	return fmt.Sprintf("%s%02d", aliasPrefix, StableHash(id)%aliasSpace+1)
}

// MaskEmail keeps at most two leading characters and the last one of the
// local part and replaces each domain label with "**".
func MaskEmail(email string) string {
	if email == "" {
		return emailFallback
	}
	parts := strings.Split(email, "@")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return emailFallback
	}

	labels := make([]string, 0, 3)
	for _, label := range strings.Split(parts[1], ".") {
		if label != "" {
			labels = append(labels, domainMask)
		}
	}
	domain := strings.Join(labels, ".")
	if domain == "" {
		domain = domainMask
	}
	return maskLocal([]rune(parts[0])) + "@" + domain
}

func maskLocal(local []rune) string {
	if len(local) <= 2 {
		start, end := "*", "*"
		if len(local) > 0 {
			start = string(local[0])
			end = string(local[len(local)-1])
		}
		return start + "*******" + end
	}
	keep := min(2, len(local)-1)
	stars := max(len(local)-keep-1, 1)
	return string(local[:keep]) + strings.Repeat("*", stars) + string(local[len(local)-1])
}

// MaskPhone keeps the first and last character. nil and empty stay nil.
func MaskPhone(phone *string) *string {
	if phone == nil || *phone == "" {
		return nil
	}
	runes := []rune(*phone)
	var masked string
	if len(runes) <= 2 {
		masked = string(runes[0]) + "*" + string(runes[len(runes)-1])
	} else {
		masked = string(runes[0]) + strings.Repeat("*", max(len(runes)-2, 1)) + string(runes[len(runes)-1])
	}
	return &masked
}

// Redacted is what every resume, report and recording URL becomes in an
// anonymized view.
func Redacted() []string {
	return []string{}
}
