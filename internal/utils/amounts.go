package utils

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/statewallet/wallet-session/internal/validators"
)

const SatsPerBtc = 100_000_000

var amountPrinter = message.NewPrinter(language.English)

// ConvertBtcToSats parses a decimal BTC amount ("0.0005") into satoshis. Both parts must be
// plain ASCII digits, more than eight fractional digits is an error rather than a silent
// rounding, and the result cannot exceed the total supply.
func ConvertBtcToSats(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	if len(frac) > 8 {
		return 0, fmt.Errorf("amount %q has more than 8 decimal places", amount)
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w > validators.MaxSats/SatsPerBtc {
		return 0, fmt.Errorf("amount %q exceeds the total supply", amount)
	}
	var f int64
	if frac != "" {
		if f, err = strconv.ParseInt(frac+strings.Repeat("0", 8-len(frac)), 10, 64); err != nil {
			return 0, fmt.Errorf("invalid amount %q", amount)
		}
	}
	if w*SatsPerBtc > validators.MaxSats-f {
		return 0, fmt.Errorf("amount %q exceeds the total supply", amount)
	}
	return w*SatsPerBtc + f, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SatsToBtc renders satoshis as a fixed eight-decimal BTC string.
func SatsToBtc(sats int64) string {
	sign := ""
	if sats < 0 {
		sign = "-"
		sats = -sats
	}
	return fmt.Sprintf("%s%d.%08d", sign, sats/SatsPerBtc, sats%SatsPerBtc)
}

// FormatSats renders a satoshi amount with thousands separators, e.g. "95,000 sats".
func FormatSats(sats int64) string {
	return amountPrinter.Sprintf("%d sats", sats)
}
