package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStartPayload(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID int64
		wantOK bool
	}{
		{"bare start", "/start", 0, false},
		{"numeric payload", "/start 42", 42, true},
		{"extra spaces", "/start    7 ", 7, true},
		{"non numeric", "/start abc", 0, false},
		{"negative", "/start -5", 0, false},
		{"zero", "/start 0", 0, false},
		{"plain text", "hello", 0, false},
		{"plain text with number", "hi 100", 0, false},
		{"other command", "/help 100", 0, false},
		{"start prefix only", "/starter 100", 0, false},
		{"addressed to bot", "/start@earn_bot 42", 42, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseStartPayload(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestParseAddPoints(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		id, amount, err := parseAddPoints("/addpoints 123 50")
		require.NoError(t, err)
		assert.Equal(t, int64(123), id)
		assert.Equal(t, "50", amount)
	})

	t.Run("amount is passed through raw", func(t *testing.T) {
		_, amount, err := parseAddPoints("/addpoints 123 lots")
		require.NoError(t, err)
		assert.Equal(t, "lots", amount)
	})

	t.Run("missing arguments", func(t *testing.T) {
		_, _, err := parseAddPoints("/addpoints 123")
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("bad user id", func(t *testing.T) {
		_, _, err := parseAddPoints("/addpoints bob 5")
		assert.ErrorIs(t, err, errUsage)
	})
}

func TestReferralLink(t *testing.T) {
	assert.Equal(t, "https://t.me/earn_bot?start=99", referralLink("earn_bot", 99))
}

func TestMoneyUsesGrouping(t *testing.T) {
	assert.Equal(t, "₹5", money(5))
	assert.Equal(t, "₹1,234,567", money(1234567))
}
