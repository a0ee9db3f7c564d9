package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockMemberGetter struct {
	mock.Mock
}

func (m *mockMemberGetter) GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(telego.ChatMember), args.Error(1)
}

func TestTelegramChecker_IsMember(t *testing.T) {
	tests := []struct {
		name   string
		member telego.ChatMember
		err    error
		want   bool
	}{
		{name: "member", member: &telego.ChatMemberMember{Status: "member"}, want: true},
		{name: "administrator", member: &telego.ChatMemberAdministrator{Status: "administrator"}, want: true},
		{name: "creator", member: &telego.ChatMemberOwner{Status: "creator"}, want: true},
		{name: "left", member: &telego.ChatMemberLeft{Status: "left"}, want: false},
		{name: "banned", member: &telego.ChatMemberBanned{Status: "kicked"}, want: false},
		{name: "restricted but joined", member: &telego.ChatMemberRestricted{Status: "restricted", IsMember: true}, want: true},
		{name: "restricted and gone", member: &telego.ChatMemberRestricted{Status: "restricted", IsMember: false}, want: false},
		{name: "lookup error", err: errors.New("Bad Request: user not found"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := &mockMemberGetter{}
			getter.On("GetChatMember", mock.Anything, mock.MatchedBy(func(p *telego.GetChatMemberParams) bool {
				return p.UserID == 42 && p.ChatID.Username == "@Play_with_TG"
			})).Return(tt.member, tt.err)

			checker := NewTelegramChecker(getter, "@Play_with_TG")

			assert.Equal(t, tt.want, checker.IsMember(context.Background(), 42))
			getter.AssertExpectations(t)
		})
	}
}

func TestAlwaysMember(t *testing.T) {
	assert.True(t, AlwaysMember{}.IsMember(context.Background(), 1))
}

func TestChannelFromLink(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://t.me/Play_with_TG", "@Play_with_TG"},
		{"https://t.me/Play_with_TG/", "@Play_with_TG"},
		{"t.me/news", "@news"},
		{"@direct", "@direct"},
		{"", ""},
		{"@", ""},
		{"https://example.com/channel", ""},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, ChannelFromLink(tt.link))
		})
	}
}
