package server

import (
	"fmt"
	"io"
	"net/http"
	"runtime"
	"runtime/pprof"
	"text/tabwriter"
)

// handleMonitor writes the memory use, game counts, and goroutines of the server as plain text.
// Each connected player should have two goroutines: one reading its websocket and one waiting for the server to stop.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	games, sockets := s.games.counts()
	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	sections := []struct {
		title string
		rows  [][2]interface{}
	}{
		{
			title: "Memory",
			rows: [][2]interface{}{
				{"Heap bytes", m.HeapAlloc},
				{"Total allocated bytes", m.TotalAlloc},
				{"System bytes", m.Sys},
				{"Live objects", m.Mallocs - m.Frees},
				{"Goroutines", runtime.NumGoroutine()},
			},
		},
		{
			title: "Games",
			rows: [][2]interface{}{
				{"Games", games},
				{"Connected players", sockets},
				{"Expected player goroutines", 2 * sockets},
			},
		},
	}
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for _, section := range sections {
		fmt.Fprintf(tw, "# %v\n", section.title)
		for _, row := range section.rows {
			fmt.Fprintf(tw, "%v\t%v\n", row[0], row[1])
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		s.log.Printf("writing monitor stats: %v", err)
		return
	}
	writeGoroutines(w)
}

// writeGoroutines writes the stack traces of all goroutines.
func writeGoroutines(w io.Writer) {
	fmt.Fprintln(w, "# Goroutines")
	pprof.Lookup("goroutine").WriteTo(w, 1)
}
