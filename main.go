package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookclub/auth"
	"bookclub/cmd"
	"bookclub/config"
	"bookclub/database"
	"bookclub/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.WithError(err).Fatal("Migration error")
			}
			return
		case "token":
			if err := handleTokenCommand(); err != nil {
				log.WithError(err).Fatal("Token error")
			}
			return
		}
	}

	// Normal server operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: bookclub migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleTokenCommand prints a signed access token for the given user
func handleTokenCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: bookclub token <userId> [VISITOR|MEMBER|ADMIN]")
	}

	userID, err := uuid.Parse(os.Args[2])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", os.Args[2], err)
	}

	role := models.UserRoleMember
	if len(os.Args) > 3 {
		role = models.UserRole(os.Args[3])
	}
	switch role {
	case models.UserRoleVisitor, models.UserRoleMember, models.UserRoleAdmin:
	default:
		return fmt.Errorf("unknown role: %s", role)
	}

	cfg := config.Get()
	token, err := auth.NewAccessToken(cfg.JWTSecret, userID, string(role), cfg.JWTTTL)
	if err != nil {
		return err
	}

	fmt.Println(token.Token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
