package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "birthday-bot",
		Short: "Sends birthday greetings to members in their own timezone",
		Long: `birthday-bot checks the member population on a schedule and greets every
member whose birthday is today in their local timezone.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newRunOnceCmd())
	root.AddCommand(newAddMemberCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
