// Package store implements persistence for users, houses, memberships,
// tasks, assignments, and categories over database/sql + SQLite.
//
// Conventions: Get methods return (nil, nil) when the row does not
// exist; multi-statement operations run in a transaction; uniqueness
// violations are detectable via IsUniqueViolation so callers can map
// them to their own conflict errors.
package store

import "strings"

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure (duplicate membership, duplicate display name, ...).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
