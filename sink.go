package tap

import (
	"fmt"

	"github.com/a2y-d5l/go-tap/event"
)

// ----------------------------- Logging sink --------------------------------

// write renders one surviving message into a single line and dispatches it
// at the severity configured for its kind. Disabled kinds and an empty
// completion message produce no output and no rendering work at all.
func (c *Config[T]) write(m event.Message[T]) {
	switch m.Kind() {
	case event.KindCompleted:
		if c.completedMessage == "" {
			return
		}
		c.backend.Emit(c.name, c.completedLevel, c.decorate(c.completedMessage, m), nil)
	case event.KindError:
		if !c.logError {
			return
		}
		err := m.Notification().Err()
		text := c.decorate(renderTemplate(c.errorFormat, errText(err)), m)
		c.backend.Emit(c.name, c.errorLevel, text, err)
	default:
		if !c.logNext {
			return
		}
		text := c.decorate(renderTemplate(c.nextFormat, c.renderValue(m.Notification().Value())), m)
		c.backend.Emit(c.name, c.nextLevel, text, nil)
	}
}

// decorate appends the accumulated annotation, then the memory fragment,
// then the stack dump. The stack dump is a multi-line block and is
// appended without a comma.
func (c *Config[T]) decorate(base string, m event.Message[T]) string {
	text := joinComma(base, m.Annotation())
	if c.showMemory {
		s := c.memoryProbe()
		text = joinComma(text, fmt.Sprintf("usedMem=%.0fMB, percentMax=%.1f", s.UsedMB, s.UsedOverMax))
	}
	if c.showStack {
		text += c.stackProbe()
	}
	return text
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
