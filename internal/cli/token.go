package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"college/internal/domain"
	"college/internal/gateway/adapter/tokens"
)

func newTokenCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect bearer tokens",
	}
	cmd.PersistentFlags().StringVar(&secret, "secret", "", "Base64 signing secret (defaults to JWT_SECRET env)")

	codec := func() (*tokens.Codec, error) {
		s := secret
		if s == "" {
			s = os.Getenv("JWT_SECRET")
		}
		if s == "" {
			return nil, errors.New("no signing secret: pass --secret or set JWT_SECRET")
		}
		key, err := tokens.DeriveKey(s)
		if err != nil {
			return nil, err
		}
		return tokens.NewCodec(key), nil
	}

	cmd.AddCommand(newTokenIssueCmd(codec), newTokenInspectCmd(codec))
	return cmd
}

func newTokenIssueCmd(codec func() (*tokens.Codec, error)) *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token for a user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive user id")
			}
			c, err := codec()
			if err != nil {
				return err
			}
			token, err := c.Issue(userID, time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id to put in the subject claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newTokenInspectCmd(codec func() (*tokens.Codec, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect TOKEN",
		Short: "Verify a token and print its subject or failure kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			userID, err := c.Verify(args[0], time.Now())
			if err != nil {
				kind := "unknown"
				var te *domain.TokenError
				if errors.As(err, &te) {
					kind = te.Kind.String()
				}
				color.New(color.FgRed).Fprintf(out, "invalid: %s\n", kind)
				return fmt.Errorf("token rejected: %s", kind)
			}

			color.New(color.FgGreen).Fprint(out, "valid")
			fmt.Fprintf(out, " subject=%d\n", userID)
			return nil
		},
	}
}
