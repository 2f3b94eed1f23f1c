// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. It provides
// type-safe access to the connection and logging settings while keeping
// configuration details separate from the data access code.
package config
