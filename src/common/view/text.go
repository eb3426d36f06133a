package view

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jack-barr3tt/commute-board/src/common/delay"
)

// RenderText writes the board as aligned columns for a terminal.
func RenderText(w io.Writer, board Board) error {
	if board.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, seg := range board.Segments {
		if seg.Failed {
			fmt.Fprintf(tw, "%s\tunavailable\t%s\n", seg.Name, seg.Reason)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s%s\t%s\t%smin\t%s\t%s%s\t%s\n",
			seg.Name,
			seg.Departure.Planned, actual(seg.Departure),
			seg.Departure.Station,
			seg.Duration,
			seg.Line,
			seg.Arrival.Planned, actual(seg.Arrival),
			seg.Arrival.Station,
		)
	}
	return tw.Flush()
}

func actual(s Stop) string {
	if !s.Delayed() {
		return ""
	}
	marker := "+"
	if s.State == delay.StateWarning {
		marker = "!"
	}
	return fmt.Sprintf(" (%s%s)", marker, s.Actual)
}
