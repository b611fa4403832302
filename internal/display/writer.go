package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Writer is a text Sink for terminals. Maps and plots are summarised, not
// drawn.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a Writer.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.out, format, args...); err != nil {
		zap.L().Debug("display: write failed", zap.Error(err))
	}
}

// Message prints text on its own line.
func (w *Writer) Message(text string) {
	w.printf("%s\n", text)
}

// Map prints the map title, centre and layer summary.
func (w *Writer) Map(v MapView) {
	var b strings.Builder
	if v.Title != "" {
		fmt.Fprintf(&b, "%s\n", v.Title)
	}
	if v.Instructions != "" {
		fmt.Fprintf(&b, "%s\n", v.Instructions)
	}
	fmt.Fprintf(&b, "map centre %.5f, %.5f zoom %d\n", v.Center.Lat, v.Center.Lng, v.Zoom)
	for _, l := range v.Layers {
		n := 0
		if l.Features != nil {
			n = len(l.Features.Features)
		}
		fmt.Fprintf(&b, "  layer %q: %d feature(s)\n", l.Name, n)
	}
	if v.DrawControl {
		b.WriteString("  draw control enabled\n")
	}
	for _, btn := range v.Buttons {
		fmt.Fprintf(&b, "  [%s]\n", btn)
	}
	if v.Footer != "" {
		fmt.Fprintf(&b, "%s\n", v.Footer)
	}
	w.printf("%s", b.String())
}

// Plot prints the plot title and total area.
func (w *Writer) Plot(v PlotView) {
	n := 0
	if v.Features != nil {
		n = len(v.Features.Features)
	}
	w.printf("%s: %d feature(s)\n", v.Title, n)
}

// Progress prints the label. The bar itself only reports completion.
func (w *Writer) Progress(label string) ProgressBar {
	w.printf("%s\n", label)
	return &writerBar{w: w}
}

type writerBar struct {
	w    *Writer
	once sync.Once
}

func (b *writerBar) Set(percent int) {
	if percent >= 100 {
		b.once.Do(func() { b.w.printf("done\n") })
	}
}
