package cli

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

const minKeyBytes = 32

func newKeygenCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a random base64 signing secret",
		Long: "Print a random base64 secret for JWT_SECRET. 32 bytes signs with HS256, " +
			"48 with HS384 and 64 or more with HS512.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < minKeyBytes {
				return fmt.Errorf("--bytes must be at least %d, got %d", minKeyBytes, size)
			}
			key := make([]byte, size)
			if _, err := rand.Read(key); err != nil {
				return fmt.Errorf("read random bytes: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(key))
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "bytes", minKeyBytes, "Key length in bytes")
	return cmd
}
