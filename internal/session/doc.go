// Package session keeps validated datasets in memory between requests.
//
// Every entry is a private deep copy of the uploaded table and Get hands out
// another copy, so concurrent requests never share mutable state. Entries
// expire after a TTL and the oldest entry is evicted when the store is full.
// Nothing survives a restart.
package session
