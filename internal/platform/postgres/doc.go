// Package postgres provides the PostgreSQL implementation of the
// store.AccessLayer contract. A DB owns exactly one pgx connection,
// binds named parameters with pgx's strict named-argument rewriting,
// hydrates typed results through a registry.Registry, and maps driver
// errors onto the store package's error taxonomy.
package postgres
