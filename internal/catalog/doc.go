// Package catalog holds the static game content: resource kinds, producers,
// upgrades and technologies.
//
// Catalogs are written in CUE and compiled against an embedded #Catalog schema.
// Compilation enforces the invariants the economy relies on:
//   - every producer and upgrade has a growth rate strictly above 1, even after
//     every cost reduction in the catalog has been applied
//   - every cost references a declared resource with a positive amount
//   - every tier used by a resource is gated by exactly one technology
//
// Declaration order is preserved. Every consumer iterates kinds in the order
// the catalog declares them, never in map order, so derived values such as
// multipliers are reproducible bit for bit.
package catalog
