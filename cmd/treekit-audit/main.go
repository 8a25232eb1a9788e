package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"treekit/internal/audit"
	"treekit/internal/exitcodes"
)

func main() {
	dbPath := flag.String("db", "/var/lib/treekit/audit.db", "Path to audit database")
	recent := flag.Int("recent", 0, "Show N most recent events")
	opID := flag.String("op", "", "Show all events of one operation ID")
	action := flag.String("action", "", "Filter by action (DELETE, COPY, MKDIR, SKIP, ERROR, DRY_RUN)")
	pathPattern := flag.String("path", "", "Filter by path pattern (SQL LIKE syntax)")
	largest := flag.Int("largest", 0, "Show N largest removed or copied nodes")
	stats := flag.Bool("stats", false, "Show operation statistics")
	days := flag.Int("days", 30, "Number of days for statistics (default: 30)")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	flag.Parse()

	db, err := audit.Open(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	switch {
	case *stats:
		showStats(db, *days, *jsonOutput)
	case *recent > 0:
		showEvents(db.Recent(*recent))(*jsonOutput)
	case *opID != "":
		showEvents(db.ByOperation(*opID))(*jsonOutput)
	case *action != "":
		showEvents(db.ByAction(*action))(*jsonOutput)
	case *pathPattern != "":
		showEvents(db.ByPath(*pathPattern))(*jsonOutput)
	case *largest > 0:
		showEvents(db.Largest(*largest))(*jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  treekit-audit --recent 10            # Show 10 most recent events")
		fmt.Println("  treekit-audit --stats                # Show operation statistics")
		fmt.Println("  treekit-audit --action DELETE        # Show only deletions")
		fmt.Println("  treekit-audit --path '/var/tmp/%'    # Show events under /var/tmp")
		fmt.Println("  treekit-audit --largest 10           # Show 10 largest nodes")
		os.Exit(exitcodes.InvalidConfig)
	}
}

func showStats(db *audit.Log, days int, jsonOutput bool) {
	stats, err := db.GetStats(days)
	if err != nil {
		log.Fatalf("ERROR: Failed to get statistics: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Operation Statistics (Last %d days)\n", days)
	fmt.Printf("Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Printf("Nodes Removed:    %d\n", stats.TotalRemoved)
	fmt.Printf("Nodes Copied:     %d\n", stats.TotalCopied)
	fmt.Printf("Total Skipped:    %d\n", stats.TotalSkipped)
	fmt.Printf("Total Errors:     %d\n", stats.TotalErrors)
	fmt.Printf("Bytes Removed:    %s\n", formatBytes(stats.BytesRemoved))
	fmt.Printf("Bytes Copied:     %s\n\n", formatBytes(stats.BytesCopied))

	if len(stats.ByAction) > 0 {
		fmt.Println("By Action:")
		for action, count := range stats.ByAction {
			fmt.Printf("  %-15s %d\n", action, count)
		}
	}
}

// showEvents adapts a query result pair into a printer
func showEvents(events []audit.Event, err error) func(jsonOutput bool) {
	return func(jsonOutput bool) {
		if err != nil {
			log.Fatalf("ERROR: Query failed: %v", err)
		}

		if jsonOutput {
			data, _ := json.MarshalIndent(events, "", "  ")
			fmt.Println(string(data))
			return
		}

		printEvents(events)
	}
}

func printEvents(events []audit.Event) {
	if len(events) == 0 {
		fmt.Println("No matching events")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tOP\tACTION\tTYPE\tSIZE\tPATH")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Op,
			e.Action,
			e.ObjectType,
			formatBytes(e.Size),
			e.Path,
		)
	}
	w.Flush()
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
