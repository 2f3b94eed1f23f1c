// Package registry resolves type names to registered definitions and hands
// out instances of them, either a cached singleton per name or a fresh value
// on every call.
//
// Definitions live in one of two logical locations, searched in order:
// data-record definitions first, then infrastructure definitions. The data
// access layer uses the registry to turn a type name supplied with a query
// into a hydration target for each result row.
//
// Registration happens at startup from compiled code; there is no runtime
// loading. "Loading" a definition only marks it as available for
// instantiation, and doing so more than once has no further effect.
package registry
