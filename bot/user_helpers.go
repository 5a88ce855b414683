package bot

import (
	"github.com/bwmarrin/discordgo"
)

// memberDisplayName returns the server nickname, falling back to the username
func memberDisplayName(member *discordgo.Member) string {
	if member == nil || member.User == nil {
		return "Unknown"
	}
	if member.Nick != "" {
		return member.Nick
	}
	return member.User.Username
}

// voiceDisplayName picks the best name for a voice state, preferring the
// state's own member and then the cached state before the change
func voiceDisplayName(v *discordgo.VoiceStateUpdate) string {
	if v.VoiceState != nil && v.Member != nil {
		return memberDisplayName(v.Member)
	}
	if v.BeforeUpdate != nil && v.BeforeUpdate.Member != nil {
		return memberDisplayName(v.BeforeUpdate.Member)
	}
	return "Unknown"
}

// channelNameResolver looks a channel up in the state cache first, then over REST
func channelNameResolver(s *discordgo.Session) func(channelID string) string {
	return func(channelID string) string {
		if s.State != nil {
			if ch, err := s.State.Channel(channelID); err == nil && ch != nil {
				return ch.Name
			}
		}
		if ch, err := s.Channel(channelID); err == nil && ch != nil {
			return ch.Name
		}
		return channelID
	}
}
