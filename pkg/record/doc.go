// Package record remembers which posts were downloaded completely.
//
// Ids live in ExploreID.db and optional post snapshots in ExploreData.db,
// both under the storage root. Checking an id never loads a snapshot.
// All writes pass through one goroutine, so concurrent callers need no
// extra locking.
package record
