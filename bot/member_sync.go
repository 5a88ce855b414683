package bot

import (
	"context"
	"fmt"

	"bookclub/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const memberPageSize = 1000

// MemberLister pages through guild members. *discordgo.Session satisfies it.
type MemberLister interface {
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// MemberSync keeps club users in step with guild membership and the terras role
type MemberSync struct {
	users        service.UserService
	terrasRoleID string
}

// NewMemberSync creates a member sync. An empty terrasRoleID marks nobody as terras.
func NewMemberSync(users service.UserService, terrasRoleID string) *MemberSync {
	return &MemberSync{users: users, terrasRoleID: terrasRoleID}
}

// Profile converts a guild member into a sync profile. Bots are skipped.
func (m *MemberSync) Profile(member *discordgo.Member, inGuild bool) (service.MemberProfile, bool) {
	if member == nil || member.User == nil || member.User.Bot {
		return service.MemberProfile{}, false
	}

	profile := service.MemberProfile{
		DiscordID:     member.User.ID,
		Username:      member.User.Username,
		IsGuildMember: inGuild,
	}
	if inGuild && m.terrasRoleID != "" {
		for _, roleID := range member.Roles {
			if roleID == m.terrasRoleID {
				profile.IsTerras = true
				break
			}
		}
	}
	return profile, true
}

// Sync upserts one member
func (m *MemberSync) Sync(ctx context.Context, member *discordgo.Member, inGuild bool) error {
	profile, ok := m.Profile(member, inGuild)
	if !ok {
		return nil
	}

	user, created, err := m.users.SyncMember(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to sync member %s: %w", profile.DiscordID, err)
	}

	log.WithFields(log.Fields{
		"discordID": profile.DiscordID,
		"userID":    user.ID,
		"role":      user.Role,
		"terras":    user.IsTerras,
		"created":   created,
	}).Debug("Member synced")
	return nil
}

// SyncAll walks every member of the guild. Individual failures are logged and skipped.
func (m *MemberSync) SyncAll(ctx context.Context, lister MemberLister, guildID string) (int, error) {
	synced := 0
	after := ""
	for {
		members, err := lister.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return synced, fmt.Errorf("failed to list guild members: %w", err)
		}

		for _, member := range members {
			if err := m.Sync(ctx, member, true); err != nil {
				log.WithError(err).Warn("Skipping member during full sync")
				continue
			}
			if _, ok := m.Profile(member, true); ok {
				synced++
			}
		}

		if len(members) < memberPageSize {
			return synced, nil
		}
		after = members[len(members)-1].User.ID
	}
}
