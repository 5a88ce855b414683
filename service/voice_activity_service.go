package service

import (
	"context"
	"fmt"
	"time"

	"bookclub/models"

	log "github.com/sirupsen/logrus"
)

type voiceActivityService struct {
	uowFactory UnitOfWorkFactory
}

// NewVoiceActivityService creates a new voice activity service
func NewVoiceActivityService(uowFactory UnitOfWorkFactory) VoiceActivityService {
	return &voiceActivityService{uowFactory: uowFactory}
}

func (s *voiceActivityService) RecordJoin(ctx context.Context, discordUserID, username, channelName string) error {
	return s.record(ctx, &models.TableLog{
		DiscordUserID: discordUserID,
		Type:          models.TableLogVoiceJoin,
		ChannelName:   channelName,
		Username:      username,
	})
}

func (s *voiceActivityService) RecordLeave(ctx context.Context, discordUserID, username, channelName string, duration time.Duration) error {
	return s.record(ctx, &models.TableLog{
		DiscordUserID:   discordUserID,
		Type:            models.TableLogVoiceLeave,
		ChannelName:     channelName,
		Username:        username,
		DurationMinutes: floorMinutes(duration),
	})
}

func (s *voiceActivityService) record(ctx context.Context, entry *models.TableLog) error {
	entry.LoggedAt = time.Now().UTC()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TableLogRepository().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record voice activity: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"discordUserID": entry.DiscordUserID,
		"type":          entry.Type,
		"channel":       entry.ChannelName,
		"minutes":       entry.DurationMinutes,
	}).Debug("Voice activity recorded")
	return nil
}

func (s *voiceActivityService) RecentLogs(ctx context.Context, discordUserID string, limit int) ([]*models.TableLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	logs, err := uow.TableLogRepository().ListByDiscordUser(ctx, discordUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice activity: %w", err)
	}
	return logs, nil
}

func (s *voiceActivityService) Summary(ctx context.Context, discordUserID string) (*models.VoiceSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	summary, err := uow.TableLogRepository().Summarize(ctx, discordUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize voice activity: %w", err)
	}
	return summary, nil
}
