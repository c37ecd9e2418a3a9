package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/grpcservice"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste [id]",
		Short: "Print a history entry to stdout (like pbpaste)",
		Long: `Writes the content of the entry with the given id, or of the newest entry
when no id is given, to stdout exactly as it was copied.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runPaste(cmd.OutOrStdout(), v, id)
		},
	}

	addSocketFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runPaste(out io.Writer, v *viper.Viper, id string) error {
	client, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()
	e, err := client.Get(ctx, id)
	if err != nil {
		if grpcservice.IsNotFound(err) {
			if id == "" {
				return fmt.Errorf("history is empty")
			}
			return fmt.Errorf("no entry with id %s", id)
		}
		return fmt.Errorf("paste: %w", err)
	}
	_, err = io.WriteString(out, e.Content)
	return err
}
