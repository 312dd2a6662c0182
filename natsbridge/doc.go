// Package natsbridge adapts NATS subjects to the push-source contract so
// live subjects can be tapped like any other stream.
//
// Subject turns a subject into a source of decoded values, Publish is its
// writing counterpart, and Embedded boots an in-process server for
// development and tests:
//
//	bridge, err := natsbridge.StartEmbedded(ctx)
//	if err != nil {
//		return err
//	}
//	defer bridge.Close(ctx)
//
//	orders := natsbridge.Subject[Order](bridge.Conn(), "orders.created")
//	op := tap.Named[Order]("orders").ShowValue().ShowCount().Log()
//	sub, err := op.Wrap(orders).Subscribe(consumer)
package natsbridge
