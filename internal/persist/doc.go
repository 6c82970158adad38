// Package persist converts economy snapshots to and from save blobs and
// defines the sink and source a save medium has to provide.
//
// A blob is a canonical JSON envelope:
//
//	{"checksum":"<hex sha256>","format":1,"state":{...}}
//
// The state object is canonical JSON (sorted keys, shortest numbers), so the
// same snapshot always serializes to the same bytes. The checksum covers the
// canonical state with a domain prefix and catches truncated or hand-edited
// saves.
//
// Loading never fails the caller: an unreadable medium or a corrupt blob is
// logged and replaced by a fresh game.
package persist
