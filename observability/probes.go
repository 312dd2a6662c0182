package observability

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// maxStackFrames bounds how much of the call stack a capture walks.
const maxStackFrames = 64

// MemorySample is a point-in-time snapshot of heap usage.
type MemorySample struct {
	// UsedMB is the allocated heap in megabytes.
	UsedMB float64
	// UsedOverMax is allocated heap as a fraction of the memory obtained
	// from the operating system.
	UsedOverMax float64
}

// SampleMemory reads the runtime's current memory statistics.
func SampleMemory() MemorySample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	sample := MemorySample{UsedMB: float64(ms.HeapAlloc) / 1e6}
	if ms.Sys > 0 {
		sample.UsedOverMax = float64(ms.HeapAlloc) / float64(ms.Sys)
	}
	return sample
}

// CaptureStack renders the call stack of its caller, one frame per line,
// each line starting with a newline and four spaces of indent. The capture
// itself does not appear in the output.
func CaptureStack() string {
	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(2, pcs)
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			fmt.Fprintf(&b, "\n    %s (%s:%d)", frame.Function, filepath.Base(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}
	return b.String()
}
