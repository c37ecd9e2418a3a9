package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/message"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List history entries, newest first",
		Long: `Lists the clipboard history, newest first. With a query only entries
containing it (case-insensitive) are shown; --fuzzy ranks entries by fuzzy
match instead.`,
		Aliases: []string{"ls", "search"},
		Args:    cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, v, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.Bool("fuzzy", false, "fuzzy match instead of substring filtering")
	f.Int("limit", 0, "show at most this many entries (0 = all)")
	f.Int("width", 80, "preview width in characters")
	f.Bool("json", false, "output raw JSON")
	addSocketFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, v *viper.Viper, query string) error {
	client, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()
	resp, err := client.List(ctx, &message.ListRequest{
		Query: query,
		Fuzzy: v.GetBool("fuzzy"),
		Limit: v.GetInt("limit"),
	})
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		return printJSON(out, resp)
	}
	if len(resp.Entries) == 0 {
		if query != "" {
			fmt.Fprintf(out, "No entries match %q.\n", query)
		} else {
			fmt.Fprintln(out, "History is empty.")
		}
		return nil
	}
	printEntries(out, resp.Entries, v.GetInt("width"), time.Now())
	if len(resp.Entries) < resp.Total {
		fmt.Fprintln(out, ageStyle.Render(fmt.Sprintf("… %d more", resp.Total-len(resp.Entries))))
	}
	return nil
}
