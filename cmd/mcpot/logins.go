package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gstoney/mcpot"
	"github.com/gstoney/mcpot/sink"
)

var (
	loginsLimit int

	loginsCmd = &cobra.Command{
		Use:          "logins",
		Short:        "List recent captures from the sqlite output",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runLogins,
	}
)

func init() {
	loginsCmd.Flags().IntVarP(&loginsLimit, "limit", "n", 20, "number of captures to show")
}

func runLogins(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := sink.Options{FileName: cfg.FileName, OutputDir: cfg.OutputDir}.Path(sink.FormatSQLite)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no sqlite output at %s, run with --formats sqlite first: %w", path, err)
	}

	db, err := sink.NewSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	total, err := db.Count(cmd.Context())
	if err != nil {
		return err
	}
	events, err := db.Recent(cmd.Context(), loginsLimit)
	if err != nil {
		return err
	}

	printLogins(cmd.OutOrStdout(), events)
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d captures\n", len(events), total)
	return nil
}

func printLogins(w io.Writer, events []mcpot.LoginEvent) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Time", "IP", "Protocol", "Version", "Hostname", "Player", "UUID", "Sensor"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, ev := range events {
		tw.Append([]string{
			ev.Timestamp.Local().Format(time.DateTime),
			ev.IP,
			strconv.Itoa(int(ev.ProtocolVersion)),
			ev.GameVersion,
			ev.Hostname,
			ev.PlayerName,
			ev.PlayerUUID.String(),
			ev.Sensor,
		})
	}
	tw.Render()
}
