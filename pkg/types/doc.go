// Package types defines the StorageProvider contract, the value types moved
// between backends (Settings, Item, ItemCollection, Snapshot, BackendMetadata),
// the Result wrapper every storage operation returns, and the standard errors
// for the daybook storage core.
package types
