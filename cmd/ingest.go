package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sports-meetup/internal/config"
	"sports-meetup/internal/database"
	"sports-meetup/internal/jobs"
	"sports-meetup/internal/messaging"
	"sports-meetup/internal/repository"
	"sports-meetup/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run only the chat ingestion pipeline",
	Long:  `Subscribe to the chat topics on the configured broker and persist every message until interrupted`,
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}

	repo := repository.NewRepository(db)
	chatService := services.NewChatService(repo, cfg.Broker.Namespace)

	listener, err := newChatListener(cfg, chatService)
	if err != nil {
		return err
	}

	return listener.Run(ctx)
}

func newChatListener(cfg *config.Config, chat *services.ChatService) (*jobs.ChatListener, error) {
	subscriber, err := messaging.NewSubscriber(cfg.Broker)
	if err != nil {
		return nil, err
	}

	return jobs.NewChatListener(subscriber, chat, jobs.ListenerConfig{
		Workers:        cfg.Broker.Workers,
		QueueSize:      cfg.Broker.QueueSize,
		ReconnectDelay: cfg.Broker.ReconnectDelay,
	}), nil
}
