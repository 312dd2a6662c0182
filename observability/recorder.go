package observability

import "sync"

// Entry is one captured emission.
type Entry struct {
	Name  string
	Level Level
	Text  string
	Err   error
}

// Recorder is a Backend that captures emissions in memory. It is intended
// for tests and for programmatic inspection of instrumentation output.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit captures the line.
func (r *Recorder) Emit(name string, level Level, text string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Name: name, Level: level, Text: text, Err: err})
}

// Entries returns a copy of everything captured so far, in emission order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of captured entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset discards everything captured so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
