package session

import (
	"fmt"
	"strings"
)

var commands = []struct{ call, doc string }{
	{"StartAreaSelection()", "shows the dataset group, shapefile and polygon dropdowns and returns the selector"},
	{"GetSelectedDataset(selector)", "returns the selected polygons of the loaded shapefile"},
	{"PlotSelection(ctx, selector)", "plots the selected polygons for visual confirmation and reports their area"},
	{"StartMapSelection(ctx, selector)", "opens an interactive map to click a polygon, or to draw an area when a draw group is chosen"},
	{"GetConfirmedSelection()", "returns the area selected and confirmed for analysis"},
	{"ShowSelectionOnMap(ctx)", "maps the selected area for visual confirmation"},
	{"ShowBufferControls()", "offers buffer distances to add around a drawn area"},
	{"ShowActiveBufferDistance()", "shows the buffer distance currently set"},
	{"ApplyBufferIncluding(ctx)", "applies the buffer to the drawn area, including the area itself"},
	{"ApplyBufferExcluding(ctx)", "applies the buffer to the drawn area, excluding the area itself"},
}

// Helper lists the available commands with a short description of each.
func (s *Session) Helper() string {
	var b strings.Builder
	b.WriteString("List of available commands for selecting geographic sites for analysis\n")
	for i, c := range commands {
		fmt.Fprintf(&b, "  %d. %s: %s\n", i+1, c.call, c.doc)
	}
	text := b.String()
	s.sink.Message(text)
	return text
}
