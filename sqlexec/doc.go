// Package sqlexec executes composed queries against SQLite.
//
// It is the reference implementation of the external execution capability
// the composer hands off to: compile with sqlgen, run with database/sql,
// scan rows into alias-keyed maps. Executions are logged with zerolog and
// tagged with UUIDv7 query ids for correlation.
package sqlexec
