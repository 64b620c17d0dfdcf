package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/passbi/journeyplanner/internal/gtfs"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/passbi/journeyplanner/internal/planner"
)

var planK int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Interactively search for itineraries",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().IntVarP(&planK, "k", "k", planner.DefaultK, "Number of itineraries to return")
}

func runPlan(cmd *cobra.Command, args []string) error {
	p, err := planner.Load(dataDir)
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}

	ctx := context.Background()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		fmt.Println()
		os.Exit(0)
	}()

	reader := bufio.NewReader(os.Stdin)

	for {
		startName, ok := promptLine(reader, "Start station: ")
		if !ok {
			return nil
		}
		endName, ok := promptLine(reader, "Destination station: ")
		if !ok {
			return nil
		}
		dateStr, ok := promptLine(reader, "Date (YYYY-MM-DD or today): ")
		if !ok {
			return nil
		}
		if dateStr == "" || strings.EqualFold(dateStr, "today") {
			dateStr = time.Now().Format("2006-01-02")
		}
		timeStr, ok := promptLine(reader, "Time (HH:MM or now): ")
		if !ok {
			return nil
		}
		if timeStr == "" || strings.EqualFold(timeStr, "now") {
			timeStr = time.Now().Format("15:04")
		}

		itineraries, err := p.Plan(ctx, startName, endName, dateStr, timeStr, planK)
		if err != nil {
			fmt.Println(planErrorLine(err))
		} else {
			printItineraries(itineraries, startName, endName)
		}

		again, ok := promptLine(reader, "\nSearch again? [y/N]: ")
		if !ok || !isYes(again) {
			return nil
		}
		fmt.Println()
	}
}

// promptLine prints prompt, reads one line from r, and returns it
// trimmed. ok is false on EOF or a read error - the caller should
// exit cleanly in that case.
func promptLine(r *bufio.Reader, prompt string) (string, bool) {
	fmt.Print(prompt)
	line, err := r.ReadString('\n')
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "j", "ja", "y", "yes":
		return true
	default:
		return false
	}
}

func planErrorLine(err error) string {
	return fmt.Sprintf("No itinerary found: %v", err)
}

func printItineraries(itineraries []models.Itinerary, startName, endName string) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf(" %s -> %s\n", startName, endName)
	fmt.Println(strings.Repeat("=", 50))

	for i, it := range itineraries {
		dep := gtfs.FormatClock(it.DepartureTime())
		arr := gtfs.FormatClock(it.ArrivalTime())
		total := it.ArrivalTime() - it.DepartureTime()

		fmt.Printf("\nItinerary %d: %s -> %s (%dh%02dm)\n", i+1, dep, arr, total/3600, (total%3600)/60)
		fmt.Println(strings.Repeat("-", 50))

		for j, seg := range it.Segments {
			if j > 0 && seg.WaitSeconds > 0 {
				fmt.Printf("  transfer: %d min wait at %s\n", seg.WaitSeconds/60, seg.BoardStopName)
			}
			fmt.Printf("  %d. %-20s %s (%s) -> %s (%s)\n", j+1, seg.RouteName,
				seg.BoardStopName, gtfs.FormatClock(seg.BoardTime),
				seg.AlightStopName, gtfs.FormatClock(seg.AlightTime))
		}
	}
	fmt.Println()
}
