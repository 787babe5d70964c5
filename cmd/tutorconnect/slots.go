package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tutorconnect/internal/scheduling"
)

var slotsFlags struct {
	tutor    string
	date     string
	from     string
	to       string
	duration int
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Print a tutor's bookable slots as JSON",
	Example: `  tutorconnect slots --tutor 6f1c... --date 2026-11-02
  tutorconnect slots --tutor 6f1c... --from 2026-11-02 --to 2026-11-08 --duration 30`,
	RunE: runSlots,
}

func init() {
	f := slotsCmd.Flags()
	f.StringVar(&slotsFlags.tutor, "tutor", "", "tutor id")
	f.StringVar(&slotsFlags.date, "date", "", "single date, YYYY-MM-DD")
	f.StringVar(&slotsFlags.from, "from", "", "first date, YYYY-MM-DD")
	f.StringVar(&slotsFlags.to, "to", "", "last date, YYYY-MM-DD")
	f.IntVar(&slotsFlags.duration, "duration", scheduling.DefaultDurationMinutes, "slot length in minutes")
	_ = slotsCmd.MarkFlagRequired("tutor")
	slotsCmd.MarkFlagsMutuallyExclusive("date", "from")
	slotsCmd.MarkFlagsRequiredTogether("from", "to")
}

func runSlots(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer d.Close()

	first, last := slotsFlags.from, slotsFlags.to
	if slotsFlags.date != "" {
		first, last = slotsFlags.date, slotsFlags.date
	}
	if first == "" {
		return errors.New("either --date or --from and --to is required")
	}
	from, err := time.ParseInLocation("2006-01-02", first, d.loc)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	to, err := time.ParseInLocation("2006-01-02", last, d.loc)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	slots, err := d.service().ResolveSlots(cmd.Context(), scheduling.ResolveRequest{
		TutorID:         slotsFlags.tutor,
		From:            from,
		To:              to,
		DurationMinutes: slotsFlags.duration,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(slots)
}
