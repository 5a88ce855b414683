package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookclub/bot/common"
	"bookclub/service"

	"github.com/bwmarrin/discordgo"
)

const (
	colorPayment  = 0x7C9070
	colorRefunded = 0xFFD700
)

// ErrDMUnavailable is returned when no Discord session is configured
var ErrDMUnavailable = errors.New("discord DM transport is not configured")

// DirectMessenger is the slice of the Discord REST API needed to DM a member.
// *discordgo.Session satisfies it.
type DirectMessenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// PaymentNotifierConfig holds the static parts of the payment DM
type PaymentNotifierConfig struct {
	FrontendURL   string
	BankAccount   string
	AccountHolder string
}

// PaymentNotifier sends approval and payment instructions over Discord DM
type PaymentNotifier struct {
	api    DirectMessenger
	config PaymentNotifierConfig
	now    func() time.Time
}

// NewPaymentNotifier creates a notifier. A nil api makes every send fail with ErrDMUnavailable.
func NewPaymentNotifier(api DirectMessenger, config PaymentNotifierConfig) *PaymentNotifier {
	return &PaymentNotifier{api: api, config: config, now: time.Now}
}

// SendPaymentNotice implements service.PaymentNotifier
func (n *PaymentNotifier) SendPaymentNotice(ctx context.Context, notice service.PaymentNotice) error {
	if n.api == nil {
		return ErrDMUnavailable
	}

	channel, err := n.api.UserChannelCreate(notice.DiscordID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel with %s: %w", notice.DiscordID, err)
	}

	if _, err := n.api.ChannelMessageSendEmbed(channel.ID, n.BuildPaymentEmbed(notice), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send payment DM to %s: %w", notice.DiscordID, err)
	}
	return nil
}

// BuildPaymentEmbed renders the approval notice with payment instructions
func (n *PaymentNotifier) BuildPaymentEmbed(notice service.PaymentNotice) *discordgo.MessageEmbed {
	refunded := notice.RefundedCoins > 0
	price := common.FormatWon(notice.Price)

	description := fmt.Sprintf("**%s** 모임 신청이 승인되었습니다!\n\n", notice.EventTitle)
	if refunded {
		description += fmt.Sprintf("🎉 **축하합니다!** 이달의 멤버로 선정되어 코인 %d개가 반환되었습니다.\n\n", notice.RefundedCoins)
	}
	description += fmt.Sprintf("아래 계좌로 %s을 입금해주세요.\n입금 후 자동으로 확정됩니다.", price)

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "💰 결제 금액",
			Value:  price,
			Inline: true,
		},
		{
			Name:   "🏦 입금 계좌",
			Value:  fmt.Sprintf("%s\n예금주: %s", n.config.BankAccount, n.config.AccountHolder),
			Inline: true,
		},
	}
	color := colorPayment
	if refunded {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "🪙 코인 반환",
			Value:  fmt.Sprintf("%d개 반환됨", notice.RefundedCoins),
			Inline: true,
		})
		color = colorRefunded
	}

	return &discordgo.MessageEmbed{
		Title:       "📬 모임 신청 승인 안내",
		Description: description,
		URL:         n.paymentURL(notice),
		Color:       color,
		Fields:      fields,
		Timestamp:   n.now().UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text:    "부기북스 | 링크를 클릭하면 결제창이 열립니다",
			IconURL: n.config.FrontendURL + "/logo.png",
		},
	}
}

func (n *PaymentNotifier) paymentURL(notice service.PaymentNotice) string {
	return fmt.Sprintf("%s/payment?eventId=%s&applicationOrder=%d&userId=%s",
		n.config.FrontendURL, notice.EventID, notice.ApplicationOrder, notice.UserID)
}
