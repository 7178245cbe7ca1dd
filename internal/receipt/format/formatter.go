package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
)

const DefaultReceiptNumberTemplate = "INV-{YYYY}{MM}{DD}-{SEQ6}"

// FormatReceiptNumber expands template with the issue date and sequence.
// Supported tokens: {YYYY} {YY} {MM} {DD} {SEQ} and {SEQn} (zero padded to n).
func FormatReceiptNumber(
	template string,
	issuedAt time.Time,
	seq int64,
) (string, error) {

	if template == "" {
		return "", fmt.Errorf("receipt number template is empty")
	}

	if seq <= 0 {
		return "", fmt.Errorf("invalid receipt sequence: %d", seq)
	}

	out := template

	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in receipt number template: %s", out)
	}

	return out, nil
}

// ValidateTemplate reports whether template expands with a sample sequence.
func ValidateTemplate(template string) error {
	_, err := FormatReceiptNumber(template, time.Unix(0, 0).UTC(), 1)
	return err
}
