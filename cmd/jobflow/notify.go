package main

import (
	"github.com/spf13/cobra"

	"github.com/amishk599/jobflow/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a test notification using the configured notifier, ignoring notify_on.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustConfig(logger)

	// Always notify so the test message is not swallowed by the policy.
	cfg.Notification.NotifyOn = notifier.NotifyOnAlways
	p := newPipeline(cfg, logger)
	n, err := p.setupNotifier()
	if err != nil {
		die(p, logger, "failed to set up notifier", err)
	}

	if err := notifier.SendTestMessage(cmd.Context(), n); err != nil {
		die(p, logger, "test notification failed", err)
	}
	logger.Info("test notification sent successfully")
	return nil
}
