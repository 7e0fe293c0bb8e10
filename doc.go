// Package flightconfig provides per-configuration parameter containers for
// simulation component trees; A flight configuration names one particular way
// of flying a vehicle (which motors are loaded, how recovery devices deploy),
// and many parameters of a component may take a different value under each
// configuration while always falling back to a guaranteed default.
//
// The central type is ParameterSet, a mapping from configuration identifiers
// (i.e., ConfigID) to values of a parameter type. A set always holds exactly
// one default value plus zero or more per-configuration overrides; querying an
// identifier without an override yields the default, so a caller can never
// observe an absent value.
//
// Parameter values are opaque to this package beyond the three capabilities of
// the Parameter interface: deep copy, value equality, and self refresh.
package flightconfig
