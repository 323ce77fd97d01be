package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
	"github.com/zombiotrack/zombiotrack/internal/engine"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[1;31m"
	ansiGreen = "\033[1;32m"
	ansiBlue  = "\033[1;34m"
)

// cellColor picks the display color for a room: blocked wins over sensor
// status, alert shows red, everything else green.
func cellColor(sensor building.SensorStatus, blocked bool) string {
	if blocked {
		return ansiBlue
	}
	if sensor == building.SensorAlert {
		return ansiRed
	}
	return ansiGreen
}

// RenderGrid writes the building as a table: one row per floor, one column
// per room. Blocked rooms show their count bracketed.
func RenderGrid(w io.Writer, st *engine.State, color bool) {
	tw := tabwriter.NewWriter(w, 4, 0, 2, ' ', 0)

	fmt.Fprint(tw, "Floor")
	for room := 0; room < st.Building.RoomsPerFloor; room++ {
		fmt.Fprintf(tw, "\tRoom %d", room)
	}
	fmt.Fprintln(tw)

	for floor := 0; floor < st.Building.FloorsCount; floor++ {
		fmt.Fprintf(tw, "%d", floor)
		for room := 0; room < st.Building.RoomsPerFloor; room++ {
			rm := st.Building.Room(floor, room)
			if rm == nil {
				fmt.Fprint(tw, "\t-")
				continue
			}
			count := st.Infected[infection.Coord{Floor: floor, Room: room}].ZombieCount
			cell := fmt.Sprintf("%d", count)
			if rm.Blocked {
				cell = fmt.Sprintf("[%d]", count)
			}
			if color {
				cell = cellColor(rm.Sensor.Status, rm.Blocked) + cell + ansiReset
			}
			fmt.Fprintf(tw, "\t%s", cell)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

// RenderSummary writes a one-line digest of the state.
func RenderSummary(w io.Writer, st *engine.State) {
	total := 0
	for _, attrs := range st.Infected {
		total += attrs.ZombieCount
	}
	fmt.Fprintf(w, "Turn %d | %d infected rooms | %d zombies | last action: %s\n",
		st.Turn, len(st.Infected), total, st.LastAction)
}
