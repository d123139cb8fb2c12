package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-habit-tracker/internal/client"
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/service"
	"github.com/MKhiriev/go-habit-tracker/models"
)

func tuiCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the task board (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoard(cmd, opts)
		},
	}
}

func runBoard(cmd *cobra.Command, opts *globalOptions) error {
	app, _, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(cmd.Context())
}

func syncCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send pending changes to the server once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, log, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			before := len(app.Pending())
			if err = app.Sync(cmd.Context()); err != nil {
				log.Err(err).Msg("sync failed")
				return err
			}

			left := len(app.Pending())
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d change(s), %d pending\n", max(before-left, 0), left)
			return nil
		},
	}
}

func queueCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List changes waiting to be sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			pending := app.Pending()
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to sync")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderQueue(pending, time.Now()))
			if !app.Durable() {
				fmt.Fprintln(cmd.OutOrStdout(), "warning: local storage is not durable")
			}
			return nil
		},
	}
}

func renderQueue(ops []models.QueuedOperation, now time.Time) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SEQ", "KIND", "TARGET", "ATTEMPTS", "STATE", "LAST ERROR")

	for _, op := range ops {
		state := "ready"
		if op.Held(now) {
			state = "held"
		}
		t.Row(
			strconv.FormatInt(op.Seq, 10),
			string(op.Kind),
			op.Collection.String()+"/"+op.TargetID,
			strconv.Itoa(op.AttemptCount),
			state,
			op.LastError,
		)
	}
	return t.Render()
}

func addTaskCmd(opts *globalOptions) *cobra.Command {
	var noSync bool

	cmd := &cobra.Command{
		Use:   "add-task <title>",
		Short: "Create a task without opening the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return errors.New("task title is empty")
			}

			app, log, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			record, err := app.AddTask(cmd.Context(), title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added task %s\n", record.ID)

			if noSync {
				return nil
			}
			if err = app.Sync(cmd.Context()); err != nil {
				if errors.Is(err, client.ErrServerUnreachable) {
					fmt.Fprintln(cmd.OutOrStdout(), "server is unreachable, the task is queued")
					return nil
				}
				log.Err(err).Msg("sync after add-task failed")
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "only queue the task")

	return cmd
}

// tokenCmd issues a bearer token with the server's signing key. It is meant
// for operators: the server itself only validates tokens.
func tokenCmd() *cobra.Command {
	var (
		userID   int64
		signKey  string
		issuer   string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return errors.New("--user-id must be positive")
			}

			auth := service.NewAuthService(config.App{
				TokenSignKey:  signKey,
				TokenIssuer:   issuer,
				TokenDuration: duration,
			}, logger.Nop())

			token, err := auth.CreateToken(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.SignedString)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user the token is issued for")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "server token signing key")
	cmd.Flags().StringVar(&issuer, "issuer", "", "server token issuer")
	cmd.Flags().DurationVar(&duration, "duration", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("sign-key")
	_ = cmd.MarkFlagRequired("issuer")

	return cmd
}
