package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-habit-tracker/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(buildInfo()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(info models.AppBuildInfo) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "habits",
		Short:         "Local-first task and goal tracker",
		Version:       info.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoard(cmd, opts)
		},
	}
	root.SetVersionTemplate("habits " + info.String() + "\n")

	opts.bind(root)

	root.AddCommand(
		tuiCmd(opts),
		syncCmd(opts),
		queueCmd(opts),
		addTaskCmd(opts),
		tokenCmd(),
	)

	return root
}

func buildInfo() models.AppBuildInfo {
	return models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
}
