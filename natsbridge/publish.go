package natsbridge

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// HeaderContentType carries the codec's content type on published messages.
const HeaderContentType = "Content-Type"

// Publish encodes v with the configured codec and publishes it to subject.
// Wildcards are not valid in publish subjects. Of the subject options only
// WithCodec applies here.
func Publish[T any](nc *nats.Conn, subject string, v T, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := ValidateSubject(subject, false); err != nil {
		return err
	}

	data, err := o.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}

	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set(HeaderContentType, o.codec.ContentType())
	if err := nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
