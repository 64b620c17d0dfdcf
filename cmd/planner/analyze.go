package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passbi/journeyplanner/internal/analysis"
	"github.com/passbi/journeyplanner/internal/gtfs"
	"github.com/passbi/journeyplanner/internal/planner"
)

var analyzeLimit int

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run feed-wide reporting queries",
}

var fastestPerHourCmd = &cobra.Command{
	Use:   "fastest-per-hour",
	Short: "Fastest direct connection departing in each hour of the day",
	RunE:  runFastestPerHour,
}

var topStopsCmd = &cobra.Command{
	Use:   "top-stops",
	Short: "Most frequented stops by stop_times row count",
	RunE:  runTopStops,
}

var overnightCmd = &cobra.Command{
	Use:   "overnight",
	Short: "Connections that arrive past midnight or before their own departure",
	RunE:  runOvernight,
}

func init() {
	analyzeCmd.PersistentFlags().IntVarP(&analyzeLimit, "limit", "l", 10, "Maximum number of rows to print")
	analyzeCmd.AddCommand(fastestPerHourCmd, topStopsCmd, overnightCmd)
}

func loadPlannerForAnalysis() (*planner.Planner, error) {
	p, err := planner.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}
	return p, nil
}

func runFastestPerHour(cmd *cobra.Command, args []string) error {
	p, err := loadPlannerForAnalysis()
	if err != nil {
		return err
	}

	rows := analysis.FastestDirectConnectionPerHour(p.Trips(), p.StopTimes())
	if len(rows) > analyzeLimit {
		rows = rows[:analyzeLimit]
	}

	fmt.Printf("%-6s %-10s %s\n", "Hour", "Minutes", "Route")
	fmt.Println(strings.Repeat("-", 30))
	for _, r := range rows {
		fmt.Printf("%02d:00  %-10d %s\n", r.DepartureHour, r.DurationMinutes, r.RouteName)
	}
	return nil
}

func runTopStops(cmd *cobra.Command, args []string) error {
	p, err := loadPlannerForAnalysis()
	if err != nil {
		return err
	}

	rows := analysis.TopFrequentedStops(p.StopTimes(), p.Stops(), analyzeLimit)

	fmt.Printf("%-30s %s\n", "Stop", "Frequency")
	fmt.Println(strings.Repeat("-", 45))
	for _, r := range rows {
		fmt.Printf("%-30s %d\n", r.StopName, r.Frequency)
	}
	return nil
}

func runOvernight(cmd *cobra.Command, args []string) error {
	p, err := loadPlannerForAnalysis()
	if err != nil {
		return err
	}

	rows := analysis.OvernightConnections(p.StopTimes(), p.Trips(), p.Stops(), analyzeLimit)

	fmt.Printf("%-10s %-25s %-8s %-8s %s\n", "Trip", "Stop", "Dep", "Arr", "Route")
	fmt.Println(strings.Repeat("-", 70))
	for _, r := range rows {
		fmt.Printf("%-10s %-25s %-8s %-8s %s\n", r.TripID, r.StopName,
			gtfs.FormatClock(r.DepartureSec), gtfs.FormatClock(r.ArrivalSec), r.RouteName)
	}
	return nil
}
