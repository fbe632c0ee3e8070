package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"dgcreview/api/internal/app"

	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its MAINTAINER_PASSWORD_HASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil && !errors.Is(err, io.EOF) {
					return runtimeErr(err)
				}
				return errors.New("empty password")
			}
			hash, err := app.HashPassword(password)
			if err != nil {
				return runtimeErr(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
