// Package state persists settings profiles: the values a user picked for one
// module, saved under a profile name and restored before the module runs.
//
//   - Store only loads and saves one Snapshot for one Ref.
//   - Profiles moves snapshots in and out of an autosplit.SettingsStore.
//     Restoring happens before on_init, so values for keys the module has
//     not declared yet are held by the store until it does.
//
// Meta.ETag provides optimistic concurrency: a save or mutate carrying an
// ETag fails with ErrETagMismatch when the stored snapshot moved on.
package state
