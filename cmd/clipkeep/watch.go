package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipkeep/internal/message"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream history changes as they happen",
		Long: `Prints one line per history change until interrupted. With --json each
event is written as a JSON object, one per line.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runWatch(cmd.OutOrStdout(), v) },
	}

	f := cmd.Flags()
	f.Bool("json", false, "output one JSON object per event")
	f.Int("width", 80, "preview width in characters")
	addSocketFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runWatch(out io.Writer, v *viper.Viper) error {
	client, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := client.Watch(ctx, &message.WatchRequest{})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	jsonOut := v.GetBool("json")
	width := v.GetInt("width")
	for {
		ev, err := w.Recv()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		if jsonOut {
			if err := writeJSONLine(out, ev); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(out, describeEvent(ev, width, time.Now()))
	}
}

func writeJSONLine(out io.Writer, v any) error {
	b, err := message.Codec{}.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", b)
	return err
}

// describeEvent renders an event as one human-readable line.
func describeEvent(ev *message.WatchEvent, width int, now time.Time) string {
	stamp := ageStyle.Render(now.Format("15:04:05"))
	switch ev.Kind {
	case "added":
		if ev.Entry != nil {
			return fmt.Sprintf("%s %s %s  %s", stamp, okStyle.Render("+"), idStyle.Render(ev.Entry.ID), previewLine(ev.Entry.Content, width))
		}
	case "deleted":
		if ev.Entry != nil {
			return fmt.Sprintf("%s %s %s  (%d left)", stamp, warnStyle.Render("-"), idStyle.Render(ev.Entry.ID), ev.Count)
		}
	case "cleared":
		return fmt.Sprintf("%s %s history cleared", stamp, warnStyle.Render("!"))
	case "monitoring":
		if ev.Monitoring {
			return fmt.Sprintf("%s %s monitoring resumed", stamp, okStyle.Render("▶"))
		}
		return fmt.Sprintf("%s %s monitoring paused", stamp, warnStyle.Render("⏸"))
	}
	return fmt.Sprintf("%s %s %d entries", stamp, ev.Kind, ev.Count)
}
