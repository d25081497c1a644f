// Package registry keeps the set of configured providers and resolves them by
// id for every relay request. A configuration reload replaces the whole set
// atomically.
package registry
