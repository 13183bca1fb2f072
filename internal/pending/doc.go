// Package pending implements a one-shot fan-out queue used to park callers while a
// single shared operation (such as a token refresh) is in flight.
//
// Every waiter receives exactly one Result, delivered in FIFO order when the
// operation is resolved or rejected.
package pending
