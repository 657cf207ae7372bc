package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tablecal/internal/extract"
	"tablecal/internal/ics"
	"tablecal/internal/model"
	"tablecal/internal/schedule"
)

var (
	convertICS     bool
	convertHTML    string
	convertFromICS string
)

var convertCmd = &cobra.Command{
	Use:   "convert [image]",
	Short: "Convert one schedule image and print its events",
	Long: `Convert runs a schedule image through the configured recognition engine
and prints the events as JSON, or as iCalendar with --ics.

With --html the recognition step is skipped and the given file is read as
the table markup the engine would have produced. With --from-ics the events
are read from a previously exported calendar instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertICS, "ics", false, "print iCalendar instead of JSON")
	convertCmd.Flags().StringVar(&convertHTML, "html", "", "read a recognized HTML table from this file instead of an image")
	convertCmd.Flags().StringVar(&convertFromICS, "from-ics", "", "read events from an iCalendar file instead of an image")
	convertCmd.MarkFlagsMutuallyExclusive("html", "from-ics")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertHTML == "" && convertFromICS == "" && len(args) != 1 {
		return fmt.Errorf("convert needs an image path, --html or --from-ics")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var events []model.Event
	switch {
	case convertFromICS != "":
		body, err := os.ReadFile(convertFromICS)
		if err != nil {
			return fmt.Errorf("read ics: %w", err)
		}
		if events, err = ics.Decode(body); err != nil {
			return err
		}
	case convertHTML != "":
		markup, err := os.ReadFile(convertHTML)
		if err != nil {
			return fmt.Errorf("read html: %w", err)
		}
		proc, err := schedule.NewProcessor(extract.NewHTMLEngine(string(markup)))
		if err != nil {
			return err
		}
		if events, err = proc.Process(cmd.Context(), nil, ""); err != nil {
			return err
		}
	default:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		engine, closeEngine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer closeEngine()
		proc, err := schedule.NewProcessor(engine)
		if err != nil {
			return err
		}
		if events, err = proc.ProcessBytes(cmd.Context(), data); err != nil {
			return err
		}
	}

	if convertICS {
		out, err := ics.Encode(events, ics.EncodeOptions{RepeatWeeks: cfg.ICS.RepeatWeeks})
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
