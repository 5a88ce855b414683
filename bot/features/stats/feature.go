package stats

import (
	"bookclub/bot/common"
	"bookclub/service"

	"github.com/bwmarrin/discordgo"
)

// CommandName is the slash command that shows a member their own activity
const CommandName = "내통계"

// Command is the registration payload for the stats slash command
var Command = &discordgo.ApplicationCommand{
	Name:        CommandName,
	Description: "나의 부기북스 활동 통계를 확인합니다",
}

// Feature represents the stats feature
type Feature struct {
	userService  service.UserService
	voiceService service.VoiceActivityService
}

// NewFeature creates a new stats feature instance
func NewFeature(userService service.UserService, voiceService service.VoiceActivityService) *Feature {
	return &Feature{
		userService:  userService,
		voiceService: voiceService,
	}
}

// HandleCommand handles the /내통계 command
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := common.DeferResponse(s, i, true); err != nil {
		return
	}

	embed, err := f.buildForInteraction(i)
	if err != nil {
		common.EditWithError(s, i, "통계를 불러오는데 실패했습니다.")
		return
	}

	if err := common.EditWithEmbed(s, i, embed); err != nil {
		common.EditWithError(s, i, "통계를 불러오는데 실패했습니다.")
	}
}
