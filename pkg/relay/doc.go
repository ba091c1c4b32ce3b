// Package relay implements the ephemeral state relay that carries large
// provider result sets and booking drafts across otherwise-stateless HTTP
// requests.
//
// A stage handler calls Store.Stage to serialize a document into the
// key-value store under a deterministic key with a bounded TTL, and receives
// an opaque continuation token: the AES-GCM ciphertext of the store key under
// a stage-bound key. A later request hands the token to Store.Resolve, which
// decrypts it and reads the record back. Expiry is TTL-only; records are
// never consumed on read, so re-resolving a live token is idempotent.
package relay
