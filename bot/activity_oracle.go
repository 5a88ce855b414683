package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bookclub/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// discordEpochMillis is the Unix millisecond time of snowflake zero
const discordEpochMillis int64 = 1420070400000

const (
	threadBatchSize  = 10
	messagePageSize  = 100
	archivedPageSize = 50
	maxArchivedPages = 20
	maxMessagePages  = 50
)

// ThreadReader is the slice of the Discord REST API the oracle reads from.
// *discordgo.Session satisfies it.
type ThreadReader interface {
	GuildThreadsActive(guildID string, options ...discordgo.RequestOption) (*discordgo.ThreadsList, error)
	ThreadsArchived(channelID string, before *time.Time, limit int, options ...discordgo.RequestOption) (*discordgo.ThreadsList, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// ActivityOracleConfig locates the library forum
type ActivityOracleConfig struct {
	GuildID          string
	LibraryChannelID string
	Location         *time.Location
}

// ActivityOracle checks the library forum for a member's posts this month.
// It never blocks an application on a Discord failure.
type ActivityOracle struct {
	api       ThreadReader
	guildID   string
	channelID string
	loc       *time.Location
	now       func() time.Time
}

// NewActivityOracle creates an oracle over api. A nil api disables the check.
func NewActivityOracle(api ThreadReader, cfg ActivityOracleConfig) *ActivityOracle {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityOracle{
		api:       api,
		guildID:   cfg.GuildID,
		channelID: cfg.LibraryChannelID,
		loc:       loc,
		now:       time.Now,
	}
}

func failOpen() service.ActivityResult {
	return service.ActivityResult{HasActivity: true, MessageCount: 0}
}

// CheckActivity implements service.ActivityOracle
func (o *ActivityOracle) CheckActivity(ctx context.Context, discordUserID string) service.ActivityResult {
	if o.api == nil || o.guildID == "" || o.channelID == "" {
		log.WithField("discordID", discordUserID).Warn("Library activity check skipped: Discord is not configured")
		return failOpen()
	}

	result, err := o.scan(ctx, discordUserID)
	if err != nil {
		log.WithFields(log.Fields{
			"discordID": discordUserID,
			"error":     err,
		}).Warn("Library activity check failed, allowing application")
		return failOpen()
	}

	log.WithFields(log.Fields{
		"discordID":    discordUserID,
		"hasActivity":  result.HasActivity,
		"messageCount": result.MessageCount,
	}).Debug("Library activity checked")
	return result
}

func (o *ActivityOracle) scan(ctx context.Context, discordUserID string) (service.ActivityResult, error) {
	windowStart := service.MonthStart(o.now(), o.loc)

	threads, err := o.libraryThreads(ctx, windowStart)
	if err != nil {
		return service.ActivityResult{}, err
	}

	var result service.ActivityResult
	for _, thread := range threads {
		if thread.OwnerID != discordUserID {
			continue
		}
		created, err := discordgo.SnowflakeTimestamp(thread.ID)
		if err == nil && !created.Before(windowStart) {
			result.HasActivity = true
			break
		}
	}

	after := snowflakeAt(windowStart)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threadBatchSize)

	for _, thread := range threads {
		g.Go(func() error {
			count, valid, err := o.scanThread(gctx, thread.ID, after, discordUserID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// One unreadable thread should not hide the rest of the forum
				log.WithFields(log.Fields{
					"threadID": thread.ID,
					"error":    err,
				}).Debug("Skipping unreadable library thread")
				return nil
			}

			mu.Lock()
			result.MessageCount += count
			result.HasActivity = result.HasActivity || valid
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return service.ActivityResult{}, err
	}
	return result, nil
}

// libraryThreads returns the forum's active threads plus archived threads that
// could still hold posts from the window, deduplicated by ID
func (o *ActivityOracle) libraryThreads(ctx context.Context, windowStart time.Time) ([]*discordgo.Channel, error) {
	seen := make(map[string]struct{})
	var threads []*discordgo.Channel
	add := func(thread *discordgo.Channel) {
		if _, dup := seen[thread.ID]; dup {
			return
		}
		seen[thread.ID] = struct{}{}
		threads = append(threads, thread)
	}

	active, err := o.api.GuildThreadsActive(o.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list active threads: %w", err)
	}
	if active != nil {
		for _, thread := range active.Threads {
			if thread.ParentID == o.channelID {
				add(thread)
			}
		}
	}

	var before *time.Time
	for page := 0; page < maxArchivedPages; page++ {
		archived, err := o.api.ThreadsArchived(o.channelID, before, archivedPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list archived threads: %w", err)
		}
		if archived == nil || len(archived.Threads) == 0 {
			break
		}

		reachedWindow := false
		for _, thread := range archived.Threads {
			if thread.ThreadMetadata != nil && thread.ThreadMetadata.ArchiveTimestamp.Before(windowStart) {
				reachedWindow = true
				continue
			}
			add(thread)
		}

		last := archived.Threads[len(archived.Threads)-1]
		if !archived.HasMore || reachedWindow || last.ThreadMetadata == nil {
			break
		}
		ts := last.ThreadMetadata.ArchiveTimestamp
		before = &ts
	}

	return threads, nil
}

// scanThread pages forward through a thread's messages posted after the
// window snowflake, counting the user's messages and looking for a review
func (o *ActivityOracle) scanThread(ctx context.Context, threadID, afterID, discordUserID string) (int, bool, error) {
	count := 0
	valid := false
	cursor := afterID

	for page := 0; page < maxMessagePages; page++ {
		messages, err := o.api.ChannelMessages(threadID, messagePageSize, "", cursor, "", discordgo.WithContext(ctx))
		if err != nil {
			return 0, false, fmt.Errorf("failed to read thread %s: %w", threadID, err)
		}

		for _, msg := range messages {
			if laterSnowflake(msg.ID, cursor) {
				cursor = msg.ID
			}
			if msg.Author == nil || msg.Author.ID != discordUserID {
				continue
			}
			count++
			if !valid && IsQualifyingMessage(msg.Content) {
				valid = true
			}
		}

		if len(messages) < messagePageSize {
			break
		}
	}

	return count, valid, nil
}

// snowflakeAt returns the smallest snowflake that could be minted at t
func snowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMillis
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<22, 10)
}

func laterSnowflake(a, b string) bool {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return false
	}
	return x > y
}
