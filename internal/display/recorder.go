package display

import "sync"

// Recorder is a Sink that keeps everything it is shown. The HTTP adapter
// drains it after each request; tests inspect it.
type Recorder struct {
	mu       sync.Mutex
	messages []string
	maps     []MapView
	plots    []PlotView
	bars     []*RecordedBar
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Message implements Sink.
func (r *Recorder) Message(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
}

// Map implements Sink.
func (r *Recorder) Map(v MapView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maps = append(r.maps, v)
}

// Plot implements Sink.
func (r *Recorder) Plot(v PlotView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plots = append(r.plots, v)
}

// Progress implements Sink.
func (r *Recorder) Progress(label string) ProgressBar {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := &RecordedBar{Label: label}
	r.bars = append(r.bars, b)
	return b
}

// Output is everything a Recorder has been shown.
type Output struct {
	Messages []string   `json:"messages,omitempty"`
	Maps     []MapView  `json:"maps,omitempty"`
	Plots    []PlotView `json:"plots,omitempty"`
}

// Snapshot returns what has been recorded so far.
func (r *Recorder) Snapshot() Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Output{
		Messages: append([]string(nil), r.messages...),
		Maps:     append([]MapView(nil), r.maps...),
		Plots:    append([]PlotView(nil), r.plots...),
	}
}

// Drain returns what has been recorded and forgets it.
func (r *Recorder) Drain() Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Output{Messages: r.messages, Maps: r.maps, Plots: r.plots}
	r.messages, r.maps, r.plots, r.bars = nil, nil, nil, nil
	return out
}

// Messages returns the recorded messages.
func (r *Recorder) Messages() []string { return r.Snapshot().Messages }

// LastMessage returns the most recent message, or "".
func (r *Recorder) LastMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

// Bars returns the progress bars handed out.
func (r *Recorder) Bars() []*RecordedBar {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RecordedBar(nil), r.bars...)
}

// RecordedBar remembers the values it was set to.
type RecordedBar struct {
	Label string

	mu     sync.Mutex
	values []int
}

// Set implements ProgressBar.
func (b *RecordedBar) Set(percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = append(b.values, percent)
}

// Values returns every value set so far.
func (b *RecordedBar) Values() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.values...)
}

// Last returns the final value, or -1 if the bar was never set.
func (b *RecordedBar) Last() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.values) == 0 {
		return -1
	}
	return b.values[len(b.values)-1]
}
