package rxnode

import (
	"fmt"
	"io"
)

// ConsolePane renders the status pane to a terminal, redrawing in
// place with ANSI clears. The dual-plane video pipeline of the target
// hardware stays out of scope; this is the data it would show.
type ConsolePane struct {
	Out io.Writer
}

// Show implements Display.
func (p *ConsolePane) Show(st Status) {
	w := p.Out
	fmt.Fprint(w, "\033[2J\033[H")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "        TELEMETRY - RECEIVER            ")
	fmt.Fprintln(w, "========================================")

	if st.SyncRemaining > 0 {
		fmt.Fprintf(w, "synchronizing... (%ds remaining)\n", int(st.SyncRemaining.Seconds()))
		fmt.Fprintln(w, "----------------------------------------")
	}

	if !st.Live {
		if st.EverReceived {
			fmt.Fprint(w, "\n   TELEMETRY LOST - link silent\n\n")
		} else {
			fmt.Fprint(w, "\n   waiting for telemetry...\n\n")
		}
		fmt.Fprintln(w, "----------------------------------------")
		return
	}

	pkt := st.Packet
	fmt.Fprintf(w, "remote resets:  %d\n", pkt.WdtResets)
	fmt.Fprintf(w, "state:          %v\n", pkt.State)
	fmt.Fprintf(w, "last command:   %v\n", pkt.LastCommand)
	fmt.Fprintf(w, "remote status:  %v\n", pkt.LastFault)
	fmt.Fprintf(w, "operations: %d  packets: %d\n", pkt.Operations, st.Packets)
	fmt.Fprintln(w, "----------------------------------------")
}

// NopDisplay discards status updates.
type NopDisplay struct{}

// Show implements Display.
func (NopDisplay) Show(Status) {}
