// Package ports defines the interfaces between the relay core and the
// outside world: the ephemeral key-value store, durable booking persistence,
// the external search providers, the payment gateway, and mail delivery.
//
// Adapters live under internal/adapters. All dependencies are
// constructor-injected; the core never reaches for ambient singletons.
package ports
