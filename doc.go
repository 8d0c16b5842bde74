// Package indicore is a pure Go implementation of the client-side half of the
// INDI (Instrument-Neutral Distributed Interface) protocol. It supports
// indiserver version 1.7.
//
// See http://indilib.org/develop/developer-manual/106-client-development.html
//
// See http://www.clearskyinstitute.com/INDI/INDI.pdf
//
// INDI devices are under no obligation to respond to a command they don't
// understand, and usually won't, which makes network-level debugging
// difficult. This package tries to make the failure modes visible instead:
// decode errors, unknown elements and dropped connections are logged and
// surfaced through typed errors and DeferResults rather than silently eaten.
//
// The package is organized bottom-up:
//
//   - Vector and its five payload kinds model a single INDI property.
//   - XMLFramer turns a byte stream into a sequence of complete top-level
//     INDI elements.
//   - Connection owns the TCP socket, the framer, and reconnect behavior.
//   - PropertyControl and DeviceTree hold the client's view of the remote
//     device/property tree and let callers wait on or subscribe to a
//     property.
//   - The Defer family composes multi-step device workflows (send a command,
//     wait for a property, chain to the next step) without blocking a
//     goroutine on a sleep.
//   - Gateway ties all of the above together into the single type most
//     callers construct.
package indicore
