package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunOnceCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single birthday cycle and print its summary as JSON",
		Long: `Run a single birthday cycle and print its summary as JSON.

Examples:
  birthday-bot run-once
  birthday-bot run-once --at 2026-03-10T13:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			instant := time.Now()
			if at != "" {
				var err error
				instant, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: want RFC 3339, e.g. 2026-03-10T13:00:00Z", at)
				}
			}

			rt, err := bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if rt.cfg.CycleTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, rt.cfg.CycleTimeout)
				defer cancel()
			}

			summary := rt.service.RunCycleAt(ctx, instant)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return err
			}
			if !summary.OK() {
				return fmt.Errorf("cycle %s failed: %s", summary.CycleID, summary.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference instant (RFC 3339); defaults to now")
	return cmd
}
