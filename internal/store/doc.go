// Package store provides the SQLite storage client used by the test
// isolation layer.
//
// The rest of the system depends on exactly three capabilities:
//
//   - destructive schema application (ApplySchema)
//   - user-defined table enumeration plus raw statement execution
//     (UserTables, Exec)
//   - simple parameterized CRUD (Insert, CountWhere, QueryRows)
//
// Any engine exposing these three would be compatible; SQLite is the one
// this package binds. Each store owns a single file-backed instance and is
// configured for a single writer, because SQLite's coarse file-level
// locking makes concurrent writers a source of SQLITE_BUSY churn rather
// than throughput.
//
// Error classification is exposed via IsBusy and IsConstraint so callers
// can distinguish "the instance is momentarily contended" from "the
// statement itself was wrong" without importing the driver.
package store
