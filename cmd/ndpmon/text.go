package main

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ANSI escape sequences for redrawing a fixed-position table in place,
// used by the non-TUI (--tui=false) rendering mode.
const (
	cursorHome = "\033[H"
	clearToEnd = "\033[J"
)

const tableWidth = 100

// renderPlain draws one frame of the stats table directly to w, without
// bubbletea. This is the fallback used when --tui=false is given, for
// piping into a log file or a dumb terminal.
func renderPlain(w io.Writer, summaries []PeerSummary, window time.Duration) {
	fmt.Fprint(w, cursorHome)
	fmt.Fprintf(w, "ndpmon (window: %s, updated: %s)\n", window, time.Now().Format("15:04:05"))
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))

	if len(summaries) == 0 {
		fmt.Fprintln(w, "no NDP traffic observed yet...")
		fmt.Fprint(w, clearToEnd)
		return
	}

	fmt.Fprintf(w, "%-32s %-17s %4s %4s %4s %4s %4s %6s  %-8s  %-8s\n",
		"Address", "MAC", "RS", "RA", "NS", "NA", "Rdr", "Total", "First", "Last")
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))

	for _, s := range summaries {
		mac := s.MAC
		if mac == "" {
			mac = "-"
		}
		fmt.Fprintf(w, "%-32s %-17s %4d %4d %4d %4d %4d %6d  %-8s  %-8s\n",
			truncate(s.Address, 32), mac,
			s.Counts[displayColumns[0]], s.Counts[displayColumns[1]], s.Counts[displayColumns[2]],
			s.Counts[displayColumns[3]], s.Counts[displayColumns[4]],
			s.Total,
			s.FirstSeen.Format("15:04:05"), s.LastSeen.Format("15:04:05"),
		)
	}
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))
	fmt.Fprintf(w, "total peers: %d\n", len(summaries))
	fmt.Fprint(w, clearToEnd)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
