// Package domain holds the core types of the booking flow: workflow stages,
// the staged documents relayed between stages, durable booking records, and
// the error taxonomy shared by the relay and its adapters.
//
// The package has no dependencies beyond the standard library so that every
// layer (relay core, adapters, HTTP surface) can share these types freely.
package domain
