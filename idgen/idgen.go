// Package idgen provides pluggable ID generation for fiskal entities.
//
// Every constructor in the repo accepts a Generator, making the ID strategy
// a startup-time decision rather than a compile-time one. The convention is
// UUIDv7 prefixed per entity kind: "fbk_" books, "trx_" transactions,
// "snp_" snapshots, "stx_" snapshot transactions.
package idgen

import "github.com/google/uuid"

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// Time-sortable and globally unique.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}
