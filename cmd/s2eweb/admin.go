package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s2eweb/s2eweb/internal/auth"
	"github.com/s2eweb/s2eweb/internal/database"
	"github.com/s2eweb/s2eweb/internal/slack"
	"github.com/s2eweb/s2eweb/internal/validate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := database.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(databaseURL); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		log.Println("database migrations applied")
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Read an admin password from stdin and print its ADMIN_PASSWORD_HASH",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
		if msg := validate.Password(password); msg != "" {
			return errors.New(msg)
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var testSlackCmd = &cobra.Command{
	Use:   "test-slack",
	Short: "Post a test message to SLACK_WEBHOOK_URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := slack.New(os.Getenv("SLACK_WEBHOOK_URL"), getEnv("BASE_URL", "http://localhost:8080"))
		if !client.Enabled() {
			return errors.New("SLACK_WEBHOOK_URL is required")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := client.SendTestMessage(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "test message sent")
		return nil
	},
}
