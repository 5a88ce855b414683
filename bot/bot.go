package bot

import (
	"context"
	"fmt"
	"time"

	"bookclub/bot/features/stats"
	"bookclub/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const memberSyncTimeout = 2 * time.Minute

// Config holds bot configuration
type Config struct {
	Token            string
	GuildID          string
	LibraryChannelID string
	TerrasRoleID     string
	Location         *time.Location
	Notifier         PaymentNotifierConfig
}

type Bot struct {
	config       Config
	session      *discordgo.Session
	oracle       *ActivityOracle
	notifier     *PaymentNotifier
	voiceTracker *VoiceTracker
	memberSync   *MemberSync
	statsFeature *stats.Feature
}

func New(config Config, userService service.UserService, voiceService service.VoiceActivityService) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildVoiceStates |
		discordgo.IntentMessageContent

	bot := &Bot{
		config:  config,
		session: dg,
		oracle: NewActivityOracle(dg, ActivityOracleConfig{
			GuildID:          config.GuildID,
			LibraryChannelID: config.LibraryChannelID,
			Location:         config.Location,
		}),
		notifier:     NewPaymentNotifier(dg, config.Notifier),
		voiceTracker: NewVoiceTracker(voiceService, channelNameResolver(dg)),
		memberSync:   NewMemberSync(userService, config.TerrasRoleID),
		statsFeature: stats.NewFeature(userService, voiceService),
	}

	dg.AddHandler(bot.handleReady)
	dg.AddHandler(bot.handleGuildCreate)
	dg.AddHandler(bot.handleVoiceStateUpdate)
	dg.AddHandler(bot.handleMemberAdd)
	dg.AddHandler(bot.handleMemberUpdate)
	dg.AddHandler(bot.handleMemberRemove)

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// ActivityOracle returns the Discord-backed library activity check
func (b *Bot) ActivityOracle() *ActivityOracle {
	return b.oracle
}

// PaymentNotifier returns the DM-based payment notifier
func (b *Bot) PaymentNotifier() *PaymentNotifier {
	return b.notifier
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("Discord bot logged in")
}

// handleGuildCreate seeds voice sessions for members already connected and
// refreshes every member's role once the guild becomes available
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.ID != b.config.GuildID {
		return
	}

	seeded := b.voiceTracker.Reconcile(g.VoiceStates)
	log.WithField("sessions", seeded).Info("Voice sessions reconciled")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), memberSyncTimeout)
		defer cancel()

		synced, err := b.memberSync.SyncAll(ctx, s, g.ID)
		if err != nil {
			log.WithError(err).Error("Failed to sync guild members")
			return
		}
		log.WithField("members", synced).Info("Guild members synced")
	}()
}

func (b *Bot) handleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil || v.GuildID != b.config.GuildID {
		return
	}
	if v.Member != nil && v.Member.User != nil && v.Member.User.Bot {
		return
	}

	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	b.voiceTracker.Update(context.Background(), v.UserID, voiceDisplayName(v), before, v.ChannelID)
}

func (b *Bot) handleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.syncMember(m.Member, true)
}

func (b *Bot) handleMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	b.syncMember(m.Member, true)
}

func (b *Bot) handleMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	b.syncMember(m.Member, false)
}

func (b *Bot) syncMember(member *discordgo.Member, inGuild bool) {
	if member == nil || member.GuildID != b.config.GuildID {
		return
	}
	if err := b.memberSync.Sync(context.Background(), member, inGuild); err != nil {
		log.WithError(err).Error("Failed to sync guild member")
	}
}
