package bot

import (
	"context"
	"sync"
	"time"

	"bookclub/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// VoiceSession is an open stay in one voice channel
type VoiceSession struct {
	JoinedAt    time.Time
	ChannelID   string
	ChannelName string
}

// SessionTable tracks who is currently in which voice channel
type SessionTable struct {
	mu       sync.Mutex
	sessions map[string]VoiceSession
}

// NewSessionTable creates an empty session table
func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]VoiceSession)}
}

// Get returns the open session for a user
func (t *SessionTable) Get(userID string) (VoiceSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	session, ok := t.sessions[userID]
	return session, ok
}

// Start opens a session, replacing any previous one
func (t *SessionTable) Start(userID string, session VoiceSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[userID] = session
}

// End closes and returns the user's session
func (t *SessionTable) End(userID string) (VoiceSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	session, ok := t.sessions[userID]
	delete(t.sessions, userID)
	return session, ok
}

// Len returns the number of open sessions
func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// VoiceTracker turns voice state changes into join and leave records
type VoiceTracker struct {
	sessions    *SessionTable
	recorder    service.VoiceActivityService
	channelName func(channelID string) string
	now         func() time.Time
}

// NewVoiceTracker creates a tracker. channelName resolves a channel ID to a display name.
func NewVoiceTracker(recorder service.VoiceActivityService, channelName func(channelID string) string) *VoiceTracker {
	if channelName == nil {
		channelName = func(channelID string) string { return channelID }
	}
	return &VoiceTracker{
		sessions:    NewSessionTable(),
		recorder:    recorder,
		channelName: channelName,
		now:         time.Now,
	}
}

// Sessions exposes the live session table
func (v *VoiceTracker) Sessions() *SessionTable {
	return v.sessions
}

// Update applies one voice state change. beforeChannelID is the channel Discord
// reported before the change and is only used when no session is open.
func (v *VoiceTracker) Update(ctx context.Context, userID, username, beforeChannelID, channelID string) {
	session, open := v.sessions.Get(userID)
	previous := beforeChannelID
	if open {
		previous = session.ChannelID
	}

	switch {
	case previous == channelID:
		// mute, deafen and stream toggles
		return
	case previous == "":
		v.join(ctx, userID, username, channelID)
	case channelID == "":
		v.leave(ctx, userID, username, previous)
	default:
		v.leave(ctx, userID, username, previous)
		v.join(ctx, userID, username, channelID)
	}
}

func (v *VoiceTracker) join(ctx context.Context, userID, username, channelID string) {
	name := v.channelName(channelID)
	v.sessions.Start(userID, VoiceSession{
		JoinedAt:    v.now(),
		ChannelID:   channelID,
		ChannelName: name,
	})

	if err := v.recorder.RecordJoin(ctx, userID, username, name); err != nil {
		log.WithFields(log.Fields{
			"discordID": userID,
			"channel":   name,
			"error":     err,
		}).Error("Failed to record voice join")
	}
}

func (v *VoiceTracker) leave(ctx context.Context, userID, username, channelID string) {
	session, open := v.sessions.End(userID)

	name := session.ChannelName
	var duration time.Duration
	if open {
		duration = v.now().Sub(session.JoinedAt)
	} else {
		name = v.channelName(channelID)
	}

	if err := v.recorder.RecordLeave(ctx, userID, username, name, duration); err != nil {
		log.WithFields(log.Fields{
			"discordID": userID,
			"channel":   name,
			"error":     err,
		}).Error("Failed to record voice leave")
	}
}

// Reconcile seeds the table from a guild's current voice states so members who
// were already connected at startup get a leave record later. Nothing is persisted.
func (v *VoiceTracker) Reconcile(states []*discordgo.VoiceState) int {
	now := v.now()
	seeded := 0
	for _, state := range states {
		if state == nil || state.ChannelID == "" || state.UserID == "" {
			continue
		}
		v.sessions.Start(state.UserID, VoiceSession{
			JoinedAt:    now,
			ChannelID:   state.ChannelID,
			ChannelName: v.channelName(state.ChannelID),
		})
		seeded++
	}
	return seeded
}
