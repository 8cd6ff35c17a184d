// Package deviceid manages the stable per-installation device identifier
// the server uses to count concurrent sessions per physical device.
//
// The identifier is created lazily on first need, persisted in durable
// local storage, and lives independently of login state. Values written
// by older releases (prefixed scheme, short ids, token-shaped blobs) are
// repaired by regeneration on next access. Storage faults degrade to a
// time+random fallback identifier and are never surfaced to callers.
//
// Usage:
//
//	store := deviceid.NewStore(deviceid.NewFileStorage(deviceid.DefaultCacheDir()))
//	id := store.GetOrCreate()
package deviceid
