// Package records persists completion records and per-user link lists in a
// SQLite database under the data directory.
//
// The store is safe for concurrent use: database/sql pools connections, WAL
// mode lets readers proceed during writes, and writes retry briefly when
// SQLite reports the database as busy.
package records
