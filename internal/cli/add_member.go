package cli

import (
	"fmt"
	"strings"
	"time"

	"birthday_notification_bot/internal/domain/failure"
	"birthday_notification_bot/internal/domain/member"

	"github.com/spf13/cobra"
)

type addMemberOptions struct {
	name     string
	contact  string
	birthday string
	timezone string
}

func newAddMemberCmd() *cobra.Command {
	var opts addMemberOptions

	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Register a member",
		Long: `Register a member. The contact is the member's Telegram chat ID.

Example:
  birthday-bot add-member --name Ann --contact 123456789 --birthday 1990-03-10 --timezone Europe/Berlin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.member()
			if err != nil {
				return err
			}

			rt, err := bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.members.Create(cmd.Context(), m); err != nil {
				switch failure.KindOf(err) {
				case failure.KindDuplicateKey:
					return fmt.Errorf("a member with contact %q already exists", m.Contact)
				case failure.KindInvalid:
					return fmt.Errorf("invalid member: %w", err)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.contact, "contact", "", "Telegram chat ID")
	cmd.Flags().StringVar(&opts.birthday, "birthday", "", "birth date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "UTC", "IANA timezone, e.g. Asia/Tokyo")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("contact")
	cmd.MarkFlagRequired("birthday")
	return cmd
}

func (o addMemberOptions) member() (*member.Member, error) {
	birthday, err := time.Parse(time.DateOnly, strings.TrimSpace(o.birthday))
	if err != nil {
		return nil, fmt.Errorf("invalid --birthday %q: want YYYY-MM-DD", o.birthday)
	}
	return &member.Member{
		Name:     strings.TrimSpace(o.name),
		Contact:  strings.TrimSpace(o.contact),
		Birthday: birthday,
		Timezone: strings.TrimSpace(o.timezone),
	}, nil
}
