package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/grpcservice"
	"go.klb.dev/clipkeep/internal/message"
)

// action is a daemon call that returns a status line.
type action func(ctx context.Context, c *grpcservice.Client) (*message.Result, error)

// runAction dials the daemon, performs a, and prints the daemon's status line.
func runAction(out io.Writer, v *viper.Viper, name string, a action) error {
	client, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()
	res, err := a(ctx, client)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Fprintln(out, okStyle.Render(res.Message))
	return nil
}

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "copy <id>",
		Short:   "Put a history entry back on the clipboard",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runAction(cmd.OutOrStdout(), v, "copy", func(ctx context.Context, c *grpcservice.Client) (*message.Result, error) {
				return c.Copy(ctx, id)
			})
		},
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a history entry",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runAction(cmd.OutOrStdout(), v, "delete", func(ctx context.Context, c *grpcservice.Client) (*message.Result, error) {
				return c.Delete(ctx, id)
			})
		},
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newClearCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		Long: `Deletes the whole clipboard history. You are asked to confirm unless
--yes is given.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if !v.GetBool("yes") && !confirm(cmd.InOrStdin(), out, "Clear all clipboard history?") {
				fmt.Fprintln(out, warnStyle.Render("Aborted."))
				return nil
			}
			return runAction(out, v, "clear", func(ctx context.Context, c *grpcservice.Client) (*message.Result, error) {
				return c.Clear(ctx)
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

// newMonitorCmd builds "pause" (on=false) and "resume" (on=true).
func newMonitorCmd(use string, on bool) *cobra.Command {
	v := viper.New()

	short := "Stop recording clipboard changes"
	if on {
		short = "Start recording clipboard changes again"
	}
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd.OutOrStdout(), v, use, func(ctx context.Context, c *grpcservice.Client) (*message.Result, error) {
				return c.SetMonitoring(ctx, on)
			})
		},
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newSaveCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "save",
		Short:   "Write the history file now",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd.OutOrStdout(), v, "save", func(ctx context.Context, c *grpcservice.Client) (*message.Result, error) {
				return c.Save(ctx)
			})
		},
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}
