package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-shutter/internal/shutter"
)

const defaultSimulateStep = 15 * time.Minute

// sensorFlags maps simulate flags onto engine setters.
var sensorFlags = []struct {
	name  string
	usage string
	set   func(e *shutter.Engine, v *float64)
}{
	{"lux", "constant outside illuminance", (*shutter.Engine).SetOutsideIlluminance},
	{"outside-temp", "constant outside temperature", (*shutter.Engine).SetOutsideTemperature},
	{"inside-temp", "constant inside temperature", (*shutter.Engine).SetInsideTemperature},
	{"azimuth", "constant sun azimuth in degrees", (*shutter.Engine).SetSunAzimuth},
	{"altitude", "constant sun altitude in degrees", (*shutter.Engine).SetSunAltitude},
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <shutter-id>",
		Short: "Replay one day of decisions for a configured shutter",
		Long: `Run the decision engine of a configured shutter across one day.

Sensors are held constant at the given values; unset sensors are unknown.
Only position changes are printed unless --all is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runSimulate,
	}
	cmd.Flags().String("date", "", "day to simulate, YYYY-MM-DD (default today)")
	cmd.Flags().Duration("step", defaultSimulateStep, "evaluation interval")
	cmd.Flags().String("window", "", "window state: open, closed or tilted")
	cmd.Flags().Bool("all", false, "print every step, not only changes")
	for _, f := range sensorFlags {
		cmd.Flags().Float64(f.name, 0, f.usage)
	}
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, sc, err := shutterConfig(cmd, args[0])
	if err != nil {
		return err
	}
	loc, err := cfg.Site.Location()
	if err != nil {
		return err
	}
	day, err := parseDay(cmd, loc)
	if err != nil {
		return err
	}
	step, err := cmd.Flags().GetDuration("step")
	if err != nil {
		return err
	}
	if step <= 0 {
		return fmt.Errorf("--step must be positive")
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	now := day
	engine := shutter.New(sc.Engine(), shutter.WithClock(func() time.Time { return now }))

	for _, f := range sensorFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(f.name)
		if err != nil {
			return err
		}
		f.set(engine, &v)
	}
	if window, _ := cmd.Flags().GetString("window"); window != "" { //nolint:errcheck // flag is registered
		engine.SetWindow(window)
	}

	return simulateDay(cmd.OutOrStdout(), engine, day, step, all, func(t time.Time) { now = t })
}

// simulateDay evaluates engine at every step of the day starting at day
// and writes a table of the results. advance moves the engine clock.
func simulateDay(w io.Writer, engine *shutter.Engine, day time.Time, step time.Duration, all bool, advance func(time.Time)) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMODE\tSPECIAL\tPOSITION\tOUTPUT\tSTATUS")

	end := day.AddDate(0, 0, 1)
	for t := day; t.Before(end); t = t.Add(step) {
		advance(t)
		d := engine.Update(t)
		if !d.Changed() && !all {
			continue
		}

		special := string(engine.Special())
		if special == "" {
			special = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Format("15:04"),
			engine.Mode(),
			special,
			formatValue(d.Position),
			formatValue(d.Output),
			engine.Summary(),
		)
	}
	return tw.Flush()
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
