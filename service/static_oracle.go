package service

import "context"

// AllowAllOracle reports activity for everyone. It stands in for the Discord
// oracle when the bot is disabled, matching the fail-open policy.
type AllowAllOracle struct{}

func (AllowAllOracle) CheckActivity(ctx context.Context, discordUserID string) ActivityResult {
	return ActivityResult{HasActivity: true, MessageCount: 0}
}
