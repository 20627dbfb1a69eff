package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listmsg/mailman-bridge/internal/config"
)

// check validates the configuration without starting anything, so a
// broken deploy fails at rollout instead of at the first email.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and print the effective snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "http addr:        %s\n", cfg.HTTP.Addr)
		fmt.Fprintf(out, "kafka brokers:    %v\n", cfg.Kafka.Brokers)
		fmt.Fprintf(out, "kafka topic:      %s\n", cfg.Kafka.Topic)
		fmt.Fprintf(out, "excluded lists:   %v\n", cfg.Archiver.ExcludedListIDs())
		fmt.Fprintf(out, "owned domains:    %v\n", cfg.Archiver.OwnedDomains)
		fmt.Fprintf(out, "archive base url: %s\n", cfg.Archiver.ArchiveBaseURL)
		return nil
	},
}
