// Package state persists per-scope option snapshots and resolves them into a
// single staged store.
//
//   - Store only loads and saves one snapshot for one Ref.
//   - Resolver loads snapshots for several scopes and merges them with
//     ffopts.NewStack(...).Merge(...).
//   - The root ffopts package stays persistence-agnostic.
//
// Data flow:
//
//	Store -> Resolver -> ffopts.NewStack(...).Merge(...) -> *ffopts.Store
//
// Meta.SnapshotID becomes the layer SnapshotID, observable through
// Store.ResolveWithTrace and SchemaDocument.Scopes.
//
// Ref.Identifier gives the canonical storage key: "system/<domain>" or
// "<scope>/<id>/<domain>" for tenant, device, stream and user scopes, where
// <id> comes from the "<scope>_id" scope metadata entry.
package state
