// Package trust manages peer trust relationships: a persistent database of
// trusted peers with per-service permissions, and a pairing service that
// verifies short numeric codes for first contact.
//
// Pairing codes are six digits, expire after one minute, and bind to the
// first peer that verifies them. A second peer presenting the same code is
// treated as an active interception attempt and reported with
// ErrMitmDetected. Code comparison is constant-time.
//
// The database persists as a JSON file written atomically; all types are
// safe for concurrent use.
package trust
