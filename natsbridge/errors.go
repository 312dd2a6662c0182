package natsbridge

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSubject indicates a malformed NATS subject.
	ErrInvalidSubject = errors.New("natsbridge: invalid subject")
	// ErrClosed indicates the embedded bridge was already closed.
	ErrClosed = errors.New("natsbridge: closed")
)

// multiErr accumulates the independent failures of a shutdown.
type multiErr []error

func (m *multiErr) add(err error) { *m = append(*m, err) }

func (m multiErr) Error() string {
	if len(m) == 0 {
		return "no errors"
	}
	if len(m) == 1 {
		return m[0].Error()
	}
	msg := fmt.Sprintf("%d errors: %s", len(m), m[0].Error())
	for _, e := range m[1:] {
		msg += "; " + e.Error()
	}
	return msg
}
