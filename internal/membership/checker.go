package membership

import (
	"context"
	"regexp"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"referral-earn-bot/internal/logger"
)

var channelLinkPattern = regexp.MustCompile(`t\.me/(.+)`)

var memberStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// Checker answers whether a user currently belongs to the gating channel.
type Checker interface {
	IsMember(ctx context.Context, userID int64) bool
}

// ChatMemberGetter is the slice of the Telegram client the checker needs.
type ChatMemberGetter interface {
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
}

// TelegramChecker asks Telegram for the user's status in the channel. Lookup
// failures are logged and count as "not a member".
type TelegramChecker struct {
	client  ChatMemberGetter
	channel string
}

func NewTelegramChecker(client ChatMemberGetter, channel string) *TelegramChecker {
	return &TelegramChecker{client: client, channel: channel}
}

func (c *TelegramChecker) IsMember(ctx context.Context, userID int64) bool {
	member, err := c.client.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.Username(c.channel),
		UserID: userID,
	})
	if err != nil {
		logger.FromContext(ctx).Error("Join check error", "channel", c.channel, "user_id", userID, "error", err)
		return false
	}
	if member == nil {
		return false
	}

	if restricted, ok := member.(*telego.ChatMemberRestricted); ok {
		return restricted.IsMember
	}
	return memberStatuses[member.MemberStatus()]
}

// AlwaysMember disables gating when no channel is configured.
type AlwaysMember struct{}

func (AlwaysMember) IsMember(context.Context, int64) bool { return true }

// ChannelFromLink turns "https://t.me/name" (or "@name") into "@name".
// It returns "" when no channel name can be found.
func ChannelFromLink(link string) string {
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "@") {
		if len(link) == 1 {
			return ""
		}
		return link
	}

	m := channelLinkPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	name := strings.ReplaceAll(m[1], "/", "")
	if name == "" {
		return ""
	}
	return "@" + name
}
