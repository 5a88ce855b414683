package stats

import (
	"fmt"
	"time"

	"bookclub/bot/common"
	"bookclub/models"

	"github.com/bwmarrin/discordgo"
)

const colorStats = 0x8B9D83

// BuildMemberStatsEmbed creates the personal statistics embed
func BuildMemberStatsEmbed(coins int64, voice *models.VoiceSummary) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "📊 나의 부기북스 통계",
		Color:     colorStats,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🎤 음성채널",
				Value:  fmt.Sprintf("%d시간", voice.TotalMinutes/60),
				Inline: true,
			},
			{
				Name:   "📅 방문일수",
				Value:  fmt.Sprintf("%d일", voice.Days),
				Inline: true,
			},
			{
				Name:   "💰 보유 코인",
				Value:  common.FormatCoins(coins),
				Inline: true,
			},
		},
	}
}
