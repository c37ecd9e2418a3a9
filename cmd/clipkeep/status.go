package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon state",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(cmd.OutOrStdout(), v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addSocketFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runStatus(out io.Writer, v *viper.Viper) error {
	client, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()
	resp, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if v.GetBool("json") {
		return printJSON(out, resp)
	}
	printStatus(out, resp, v.GetString("socket"), time.Now())
	return nil
}

func printStatus(out io.Writer, resp *message.StatusResponse, socket string, now time.Time) {
	monitoring := okStyle.Render("active")
	if !resp.Monitoring {
		monitoring = warnStyle.Render("paused")
	}
	saved := "never"
	if resp.LastSaved != nil {
		saved = fmtAgeAt(*resp.LastSaved, now)
	}

	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Daemon:\t%s\n", resp.Version)
	fmt.Fprintf(w, "Socket:\t%s\n", socket)
	fmt.Fprintf(w, "History:\t%s\n", resp.HistoryPath)
	fmt.Fprintf(w, "Entries:\t%d / %d\n", resp.Count, resp.MaxItems)
	fmt.Fprintf(w, "Monitoring:\t%s\n", monitoring)
	fmt.Fprintf(w, "Backend:\t%s\n", resp.Backend)
	fmt.Fprintf(w, "Last saved:\t%s\n", saved)
	fmt.Fprintf(w, "Watchers:\t%d\n", resp.Watchers)
	_ = w.Flush()
	fmt.Fprintf(out, "\n%s %s\n", labelStyle.Render("Status:"), resp.Message)
}
