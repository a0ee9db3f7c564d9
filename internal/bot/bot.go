package bot

import (
	"context"
	"errors"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"referral-earn-bot/internal/cooldown"
	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/logger"
	"referral-earn-bot/internal/membership"
	"referral-earn-bot/internal/metrics"
)

// API is the part of the Telegram client the handlers talk to. *telego.Bot
// implements it.
type API interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error)
	DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error
	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
}

type Settings struct {
	Username    string
	ChannelLink string
	// IsAdmin authorizes /addpoints. Nil means nobody.
	IsAdmin func(userID int64) bool
}

type Bot struct {
	api        API
	ledger     *ledger.Service
	membership membership.Checker
	spins      cooldown.Gate
	settings   Settings
}

func NewBot(api API, svc *ledger.Service, checker membership.Checker, spins cooldown.Gate, settings Settings) *Bot {
	return &Bot{
		api:        api,
		ledger:     svc,
		membership: checker,
		spins:      spins,
		settings:   settings,
	}
}

// Start dispatches updates until the updates channel is closed, which both
// long polling and the webhook do once their context is cancelled.
func (b *Bot) Start(ctx context.Context, tg *telego.Bot, updates <-chan telego.Update) error {
	handler, err := th.NewBotHandler(tg, updates)
	if err != nil {
		return err
	}

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		return b.handleStart(b.track(ctx, "start"), update.Message)
	}, th.CommandEqual("start"))

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		return b.handleAddPoints(b.track(ctx, "addpoints"), update.Message)
	}, th.CommandEqual("addpoints"))

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		return b.handleCallback(b.track(ctx, "callback"), update.CallbackQuery)
	}, th.AnyCallbackQuery())

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		return b.handleStart(b.track(ctx, "text"), update.Message)
	}, th.AnyMessageWithText(), th.Not(th.AnyCommand()))

	logger.FromContext(ctx).Info("Bot handler started", "username", b.settings.Username)
	return handler.Start()
}

func (b *Bot) track(ctx context.Context, kind string) context.Context {
	metrics.UpdatesHandled.WithLabelValues(kind).Inc()
	return logger.WithRequestID(ctx, logger.GenerateRequestID())
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.settings.IsAdmin != nil && b.settings.IsAdmin(userID)
}

func (b *Bot) handleStart(ctx context.Context, msg *telego.Message) error {
	if msg == nil || msg.From == nil {
		return nil
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID
	log := logger.FromContext(ctx).With("user_id", userID)

	if _, err := b.ledger.GetOrCreate(ctx, userID); err != nil {
		log.Error("Failed to load account", "error", err)
		b.send(ctx, chatID, textSomethingWrong, nil)
		return nil
	}

	if referrerID, ok := parseStartPayload(msg.Text); ok {
		b.applyReferral(ctx, chatID, userID, referrerID)
	}

	isMember := b.membership.IsMember(ctx, userID)
	if _, err := b.ledger.RecordMembership(ctx, userID, isMember); err != nil {
		log.Error("Failed to record membership", "error", err)
	}

	if !isMember {
		b.send(ctx, chatID, textNotVerified, joinMenu(b.settings.ChannelLink))
		return nil
	}
	b.send(ctx, chatID, textWelcome, mainMenu())
	return nil
}

func (b *Bot) applyReferral(ctx context.Context, chatID, userID, referrerID int64) {
	log := logger.FromContext(ctx).With("user_id", userID, "referrer_id", referrerID)

	referrer, err := b.ledger.RegisterReferral(ctx, userID, referrerID)
	switch {
	case ledger.IsRejection(err):
		log.Debug("Referral ignored", "reason", err)
		return
	case err != nil:
		log.Error("Failed to register referral", "error", err)
		return
	}

	bonus := b.ledger.Rules().ReferralBonus
	b.send(ctx, chatID, referralAcceptedText(bonus), nil)
	b.send(ctx, referrerID, referrerNotifyText(bonus, referrer), nil)
}

func (b *Bot) handleAddPoints(ctx context.Context, msg *telego.Message) error {
	if msg == nil || msg.From == nil {
		return nil
	}
	log := logger.FromContext(ctx).With("user_id", msg.From.ID)
	if !b.isAdmin(msg.From.ID) {
		log.Warn("Unauthorized addpoints attempt")
		return nil
	}

	targetID, rawAmount, err := parseAddPoints(msg.Text)
	if err != nil {
		b.send(ctx, msg.Chat.ID, errUsage.Error(), nil)
		return nil
	}

	acc, err := b.ledger.GrantManualPoints(ctx, targetID, rawAmount)
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		b.send(ctx, msg.Chat.ID, errUsage.Error(), nil)
	case err != nil:
		log.Error("Failed to grant points", "target_id", targetID, "error", err)
		b.send(ctx, msg.Chat.ID, textSomethingWrong, nil)
	default:
		b.send(ctx, msg.Chat.ID, addPointsText(targetID, acc), nil)
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, query *telego.CallbackQuery) error {
	if query == nil {
		return nil
	}
	userID := query.From.ID
	chatID, messageID := userID, 0
	if query.Message != nil {
		chatID = query.Message.GetChat().ID
		messageID = query.Message.GetMessageID()
	}
	log := logger.FromContext(ctx).With("user_id", userID, "data", query.Data)

	if query.Data == cbRefresh {
		b.handleRefresh(ctx, query, chatID, messageID)
		return nil
	}

	acc, err := b.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		log.Error("Failed to load account", "error", err)
		b.alert(ctx, query.ID, textSomethingWrong)
		return nil
	}
	if !ledger.IsVerified(acc) {
		b.alert(ctx, query.ID, textJoinFirst)
		return nil
	}

	switch query.Data {
	case cbBalance:
		b.edit(ctx, chatID, messageID, balanceText(acc))
	case cbReferralLink:
		b.edit(ctx, chatID, messageID, referralLinkText(referralLink(b.settings.Username, userID)))
	case cbEarnings:
		b.edit(ctx, chatID, messageID, earningsText(b.ledger.Rules()))
	case cbWithdraw:
		b.handleWithdraw(ctx, chatID, messageID, userID, acc.Balance)
	case cbSpin:
		b.handleSpin(ctx, chatID, messageID, userID)
	case cbBack:
		b.remove(ctx, chatID, messageID)
		b.send(ctx, chatID, textWelcome, mainMenu())
	default:
		log.Debug("Unknown callback")
	}
	b.answer(ctx, query.ID)
	return nil
}

func (b *Bot) handleRefresh(ctx context.Context, query *telego.CallbackQuery, chatID int64, messageID int) {
	userID := query.From.ID
	isMember := b.membership.IsMember(ctx, userID)
	if _, err := b.ledger.RecordMembership(ctx, userID, isMember); err != nil {
		logger.FromContext(ctx).Error("Failed to record membership", "user_id", userID, "error", err)
	}
	if !isMember {
		b.alert(ctx, query.ID, textStillNotJoined)
		return
	}
	b.remove(ctx, chatID, messageID)
	b.send(ctx, chatID, textWelcome, mainMenu())
	_ = b.api.AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).WithText(textJoined))
}

func (b *Bot) handleWithdraw(ctx context.Context, chatID int64, messageID int, userID, balance int64) {
	minimum := b.ledger.Rules().MinimumWithdrawal
	acc, err := b.ledger.Withdraw(ctx, userID)
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		b.edit(ctx, chatID, messageID, withdrawInsufficientText(minimum, balance))
	case err != nil:
		logger.FromContext(ctx).Error("Withdrawal failed", "user_id", userID, "error", err)
		b.edit(ctx, chatID, messageID, textSomethingWrong)
	default:
		b.edit(ctx, chatID, messageID, withdrawSuccessText(minimum, acc))
	}
}

func (b *Bot) handleSpin(ctx context.Context, chatID int64, messageID int, userID int64) {
	ok, retryAfter := b.spins.Acquire(ctx, userID)
	if !ok {
		b.edit(ctx, chatID, messageID, spinCooldownText(retryAfter))
		return
	}

	amount, acc, err := b.ledger.GrantRandomReward(ctx, userID)
	if err != nil {
		b.spins.Release(ctx, userID)
		logger.FromContext(ctx).Error("Spin failed", "user_id", userID, "error", err)
		b.edit(ctx, chatID, messageID, textSomethingWrong)
		return
	}
	b.edit(ctx, chatID, messageID, spinText(amount, acc.Balance))
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *telego.InlineKeyboardMarkup) {
	params := tu.Message(tu.ID(chatID), text)
	if kb != nil {
		params = params.WithReplyMarkup(kb)
	}
	if _, err := b.api.SendMessage(ctx, params); err != nil {
		logger.FromContext(ctx).Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// edit replaces a menu message with a detail screen that offers a way back.
func (b *Bot) edit(ctx context.Context, chatID int64, messageID int, text string) {
	_, err := b.api.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(chatID),
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: backMenu(),
	})
	if err != nil {
		logger.FromContext(ctx).Error("Failed to edit message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) remove(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := b.api.DeleteMessage(ctx, tu.Delete(tu.ID(chatID), messageID)); err != nil {
		logger.FromContext(ctx).Warn("Failed to delete message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answer(ctx context.Context, queryID string) {
	if err := b.api.AnswerCallbackQuery(ctx, tu.CallbackQuery(queryID)); err != nil {
		logger.FromContext(ctx).Warn("Failed to answer callback", "error", err)
	}
}

func (b *Bot) alert(ctx context.Context, queryID, text string) {
	if err := b.api.AnswerCallbackQuery(ctx, tu.CallbackQuery(queryID).WithText(text).WithShowAlert()); err != nil {
		logger.FromContext(ctx).Warn("Failed to answer callback", "error", err)
	}
}
