package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatWon(t *testing.T) {
	assert.Equal(t, "0원", FormatWon(0))
	assert.Equal(t, "999원", FormatWon(999))
	assert.Equal(t, "12,000원", FormatWon(12000))
	assert.Equal(t, "1,234,567원", FormatWon(1234567))
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "5개", FormatCoins(5))
	assert.Equal(t, "1,000개", FormatCoins(1000))
}

func TestFormatDiscordTimestamp(t *testing.T) {
	ts := time.Unix(1760000000, 0)
	assert.Equal(t, "<t:1760000000:R>", FormatDiscordTimestamp(ts, "R"))
}
