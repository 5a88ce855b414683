package testutil

import (
	"time"

	"bookclub/models"

	"github.com/google/uuid"
)

// CreateTestUser creates a member with default values
func CreateTestUser(discordID, username string) *models.User {
	return &models.User{
		ID:        uuid.New(),
		DiscordID: discordID,
		Username:  username,
		Role:      models.UserRoleMember,
	}
}

// CreateTestUserWithCoins creates a member with a specific coin balance
func CreateTestUserWithCoins(discordID, username string, coins int64) *models.User {
	user := CreateTestUser(discordID, username)
	user.Coins = coins
	return user
}

// CreateTestEvent creates an event a week out
func CreateTestEvent(title string, maxParticipants int, requiredCoins int64) *models.Event {
	return &models.Event{
		ID:              uuid.New(),
		Title:           title,
		Content:         "함께 읽고 이야기 나눠요",
		Date:            time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second),
		Location:        "합정",
		MaxParticipants: maxParticipants,
		RequiredCoins:   requiredCoins,
		Price:           15000,
		EventType:       models.DefaultEventType,
	}
}

// CreateTestApplication creates a pending application with the given order
func CreateTestApplication(eventID, userID uuid.UUID, order int) *models.EventApplication {
	return &models.EventApplication{
		ID:               uuid.New(),
		EventID:          eventID,
		UserID:           userID,
		ApplicationOrder: order,
		Status:           models.ApplicationStatusPending,
	}
}
