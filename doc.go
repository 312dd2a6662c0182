// Package tap logs the lifecycle of asynchronous push streams without
// disturbing them: subscription start, every emitted value, and the
// terminal error or completion, rendered through a configurable stage
// chain into a severity-leveled logging back-end.
//
// The module is structured into focused subpackages:
//
//   - github.com/a2y-d5l/go-tap/event         - Notification and message envelope types
//   - github.com/a2y-d5l/go-tap/stage         - Pipeline stages and chains
//   - github.com/a2y-d5l/go-tap/source        - Push-stream contract and helper sources
//   - github.com/a2y-d5l/go-tap/observability - Logging back-ends and runtime probes
//   - github.com/a2y-d5l/go-tap/natsbridge    - NATS subjects as tappable sources
//
// The root package provides the fluent configuration builder, the logging
// sink, and the operator that ties them to a source. Builders are
// immutable values; an operator is a frozen profile that can wrap any
// number of sources, and every subscription gets fresh stage state.
//
// Example usage:
//
//	logged := tap.Named[Order]("orders.audit").
//		ShowValue().
//		ShowCount().
//		Every(100).
//		Log().
//		Wrap(orders)
//
//	sub, err := logged.Subscribe(tap.Callbacks[Order]{
//		Next: func(o Order) { process(o) },
//		Error: func(err error) { log.Fatal(err) },
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sub.Unsubscribe()
//
// Profiles can also be loaded declaratively from YAML with FromYAML, and
// NATS subjects become tappable sources through the natsbridge package.
package tap
