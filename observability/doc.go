// Package observability provides the logging back-end contract for go-tap,
// a slog-based implementation of it, and the runtime probes the sink uses
// for memory and stack annotations.
//
// # Back-ends
//
// A Backend consumes fully rendered instrumentation lines. Dispatch is
// fire-and-forget: back-ends never report errors to the pipeline and the
// pipeline never retries. The slog back-end attaches the instrumentation
// identity and, for error events, the error object as structured fields:
//
//	backend := observability.NewBackend(observability.Config{
//		Level:  observability.LevelDebug,
//		Format: observability.JSON,
//		Output: os.Stdout,
//	})
//	observability.SetDefault(backend)
//
// # Severity
//
// Levels order TRACE < DEBUG < INFO < WARN < ERROR. The instrumentation
// core never filters by level; thresholding is entirely the back-end's
// concern. TRACE has no slog equivalent and maps to a custom slog level
// below DEBUG.
//
// # Testing
//
// Recorder captures emissions in memory for assertions:
//
//	rec := observability.NewRecorder()
//	// ... run instrumented code with rec as the backend ...
//	for _, e := range rec.Entries() {
//		fmt.Println(e.Level, e.Text)
//	}
//
// # High-volume dispatch
//
// Async decorates another back-end with a bounded queue and a worker
// goroutine so slow sinks never stall emission paths. Overflow behavior is
// selectable: block, drop the incoming line, or evict the oldest queued
// line.
package observability
