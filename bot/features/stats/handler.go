package stats

import (
	"context"
	"fmt"

	"bookclub/models"
	"bookclub/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (f *Feature) buildForInteraction(i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	user := interactionUser(i)
	if user == nil {
		return nil, fmt.Errorf("interaction has no user")
	}
	return f.Build(context.Background(), user.ID)
}

// Build loads the member's coins and voice totals and renders the stats embed.
// A Discord user who never signed in gets zero coins rather than an error.
func (f *Feature) Build(ctx context.Context, discordID string) (*discordgo.MessageEmbed, error) {
	var coins int64
	member, err := f.userService.GetByDiscordID(ctx, discordID)
	switch {
	case err == nil:
		coins = member.Coins
	case service.IsNotFound(err):
	default:
		log.WithFields(log.Fields{
			"discordID": discordID,
			"error":     err,
		}).Error("Failed to load member for stats")
		return nil, err
	}

	voice, err := f.voiceService.Summary(ctx, discordID)
	if err != nil {
		log.WithFields(log.Fields{
			"discordID": discordID,
			"error":     err,
		}).Error("Failed to load voice summary for stats")
		return nil, err
	}
	if voice == nil {
		voice = &models.VoiceSummary{}
	}

	return BuildMemberStatsEmbed(coins, voice), nil
}
