package models

import "time"

// TableLogType distinguishes voice channel joins from leaves
type TableLogType string

const (
	TableLogVoiceJoin  TableLogType = "VOICE_JOIN"
	TableLogVoiceLeave TableLogType = "VOICE_LEAVE"
)

// TableLog records voice channel presence for the club's "table" sessions
type TableLog struct {
	ID              int64        `db:"id" json:"id"`
	DiscordUserID   string       `db:"discord_user_id" json:"discordUserId"`
	Type            TableLogType `db:"type" json:"type"`
	ChannelName     string       `db:"channel_name" json:"channelName"`
	Username        string       `db:"username" json:"username"`
	DurationMinutes int          `db:"duration_minutes" json:"durationMinutes"`
	LoggedAt        time.Time    `db:"logged_at" json:"loggedAt"`
}

// VoiceSummary aggregates a member's completed voice sessions
type VoiceSummary struct {
	TotalMinutes int `json:"totalMinutes"`
	Days         int `json:"days"`
}
