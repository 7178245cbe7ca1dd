package billing

import (
	"strconv"
	"strings"

	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
)

// FormatAmount renders whole currency units with space-grouped thousands
// followed by the currency symbol, e.g. "3 000 Ar".
func FormatAmount(amount int64, currency businessdomain.Currency) string {
	return GroupThousands(amount) + " " + currency.Symbol()
}

func GroupThousands(amount int64) string {
	negative := amount < 0
	digits := strconv.FormatInt(amount, 10)
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(' ')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
