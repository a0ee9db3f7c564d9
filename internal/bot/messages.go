package bot

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/models"
)

const currency = "₹"

var printer = message.NewPrinter(language.English)

const (
	textWelcome        = "🎉 Welcome to the Earning Bot!\n\nInvite friends, spin daily and withdraw your earnings."
	textJoinFirst      = "❌ Please join the channel first!"
	textStillNotJoined = "❌ You haven't joined the channel yet. Join and press Refresh."
	textJoined         = "✅ Thanks for joining!"
	textSomethingWrong = "⚠️ Something went wrong, please try again later."
	textNotVerified    = "👋 To use this bot you need to join our channel first.\n\nAfter joining, press the button below."
)

func money(amount int64) string {
	return printer.Sprintf("%s%d", currency, amount)
}

func balanceText(acc *models.Account) string {
	return printer.Sprintf("💰 Your balance: %s\n👥 Referrals: %d", money(acc.Balance), acc.ReferralCount)
}

func referralLinkText(link string) string {
	return printer.Sprintf("🔗 Your referral link:\n%s\n\nShare it with friends to earn rewards!", link)
}

func earningsText(r ledger.Rules) string {
	return printer.Sprintf("📈 Earn %s for every friend who joins with your link.\n🎰 Spin once a day for %s to %s.\n💵 Withdraw once you reach %s.",
		money(r.ReferralBonus), money(r.RewardMin), money(r.RewardMax), money(r.MinimumWithdrawal))
}

func withdrawSuccessText(amount int64, acc *models.Account) string {
	return printer.Sprintf("✅ Withdrawal of %s requested!\n💰 Remaining balance: %s", money(amount), money(acc.Balance))
}

func withdrawInsufficientText(minimum, balance int64) string {
	return printer.Sprintf("❌ You need at least %s to withdraw.\n💰 Your balance: %s", money(minimum), money(balance))
}

func spinText(amount, balance int64) string {
	return printer.Sprintf("🎰 You won %s!\n💰 New balance: %s", money(amount), money(balance))
}

func spinCooldownText(retryAfter time.Duration) string {
	return printer.Sprintf("⏳ You already spun today. Try again in %s.", retryAfter.Round(time.Minute))
}

func referralAcceptedText(bonus int64) string {
	return printer.Sprintf("🎉 Referral successful! Your friend earned %s.", money(bonus))
}

func referrerNotifyText(bonus int64, referrer *models.Account) string {
	return printer.Sprintf("🎉 New referral! %s added.\n💰 Balance: %s", money(bonus), money(referrer.Balance))
}

func addPointsText(userID int64, acc *models.Account) string {
	return printer.Sprintf("✅ Points updated for %d. New balance: %s", userID, money(acc.Balance))
}
