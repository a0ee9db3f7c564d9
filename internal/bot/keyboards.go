package bot

import (
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Callback data values.
const (
	cbRefresh      = "refresh"
	cbBalance      = "balance"
	cbReferralLink = "referral_link"
	cbEarnings     = "earnings"
	cbWithdraw     = "withdraw"
	cbSpin         = "spin"
	cbBack         = "back"
)

func mainMenu() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💰 Balance").WithCallbackData(cbBalance),
			tu.InlineKeyboardButton("🔗 Referral Link").WithCallbackData(cbReferralLink),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📈 How to Earn").WithCallbackData(cbEarnings),
			tu.InlineKeyboardButton("💵 Withdraw").WithCallbackData(cbWithdraw),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎰 Spin").WithCallbackData(cbSpin),
		),
	)
}

func backMenu() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("⬅️ Back to Menu").WithCallbackData(cbBack),
		),
	)
}

func joinMenu(channelLink string) *telego.InlineKeyboardMarkup {
	refresh := tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("✅ I've Joined / Refresh").WithCallbackData(cbRefresh),
	)
	if channelLink == "" {
		return tu.InlineKeyboard(refresh)
	}
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📢 Join Channel").WithURL(channelLink),
		),
		refresh,
	)
}
