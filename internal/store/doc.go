// Package store defines the contract of the data access layer: the
// operations a caller can run against the database, the statements and
// parameters they take, the shapes results come back in, and the errors
// they fail with. Driver-specific implementations live under
// internal/platform.
package store
