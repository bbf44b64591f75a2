package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-menubar/internal/config"
	"github.com/smokyabdulrahman/prayer-menubar/internal/display"
	"github.com/smokyabdulrahman/prayer-menubar/internal/prayer"
)

// runToday is the root command action: print today's schedule as a table
// with adhan and iqama columns, highlighting the next prayer.
func runToday(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)

	src, loc, err := newSource(cfg)
	if err != nil {
		return err
	}

	now := time.Now()
	method := cfg.MethodOrDefault(-1)

	builder := prayer.NewBuilder(src)
	sched, err := builder.Build(loc.Coords, now, method, cfg.Offsets(), now)
	if err != nil {
		return fmt.Errorf("failed to build schedule: %w", err)
	}

	var hijri string
	if info, err := src.DayInfo(now, loc.Coords, method); err == nil {
		hijri = info.Hijri.Format()
	}

	if FlagJSON {
		return printTodayJSON(cfg, sched, hijri, now)
	}

	layout := cfg.TimeLayout()

	fmt.Println()
	fmt.Printf("  %s\n", display.Bold("Prayer Times"))
	if hijri != "" {
		fmt.Printf("  %s\n", display.Gray(hijri))
	}
	fmt.Printf("  %s\n", display.Gray(sched.Date.Format("Mon 02 Jan 2006")))
	fmt.Println()

	tbl := display.NewTable("Prayer", "Adhan", "Iqama")
	for i, e := range sched.Entries {
		tbl.AddRow(e.DisplayName, e.Adhan.Format(layout), e.Iqama.Format(layout))
		if e.IsNext {
			tbl.SetHighlightRow(i)
		}
	}
	fmt.Print(tbl.Render())

	if sched.Next != nil {
		label, remaining := prayer.CountdownInfo(*sched.Next, now)
		fmt.Println()
		if remaining == "Now" {
			fmt.Printf("  %s\n", display.Accent(label+" now"))
		} else {
			fmt.Printf("  %s\n", display.Accent(fmt.Sprintf("%s in %s", label, remaining)))
		}
	}
	fmt.Println()

	return nil
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Date    string           `json:"date"`
	Hijri   string           `json:"hijri,omitempty"`
	Entries []todayJSONEntry `json:"entries"`
	Next    *todayJSONNext   `json:"next"`
}

type todayJSONEntry struct {
	Prayer string `json:"prayer"`
	Name   string `json:"name"`
	Adhan  string `json:"adhan"`
	Iqama  string `json:"iqama"`
	IsNext bool   `json:"is_next"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Label     string `json:"label"`
	Remaining string `json:"remaining"`
}

func printTodayJSON(cfg *config.Config, sched *prayer.Schedule, hijri string, now time.Time) error {
	layout := cfg.TimeLayout()

	out := todayJSON{
		Date:  sched.Date.Format("2006-01-02"),
		Hijri: hijri,
	}
	for _, e := range sched.Entries {
		out.Entries = append(out.Entries, todayJSONEntry{
			Prayer: strings.ToLower(e.ID),
			Name:   e.DisplayName,
			Adhan:  e.Adhan.Format(layout),
			Iqama:  e.Iqama.Format(layout),
			IsNext: e.IsNext,
		})
	}
	if sched.Next != nil {
		label, remaining := prayer.CountdownInfo(*sched.Next, now)
		out.Next = &todayJSONNext{
			Prayer:    strings.ToLower(sched.Next.ID),
			Label:     label,
			Remaining: remaining,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
