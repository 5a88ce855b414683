package common

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

// FormatNumber formats an integer with thousand separators
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatWon formats a real-currency amount, e.g. "12,000원"
func FormatWon(amount int64) string {
	return FormatNumber(amount) + "원"
}

// FormatCoins formats a coin amount, e.g. "5개"
func FormatCoins(coins int64) string {
	return FormatNumber(coins) + "개"
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
