package idgen_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hazyhaar/fiskal/idgen"
)

func TestUUIDv7Unique(t *testing.T) {
	// WHAT: Consecutive IDs are distinct, parseable UUIDs.
	gen := idgen.UUIDv7()
	seen := make(map[string]bool)
	for range 100 {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("id %s is not a UUID: %v", id, err)
		}
	}
}

func TestUUIDv7Sortable(t *testing.T) {
	// WHAT: UUIDv7 IDs generated later sort lexically after earlier ones.
	// WHY: Snapshot listings rely on time-ordered IDs as a tiebreaker.
	gen := idgen.UUIDv7()
	prev := gen()
	for range 50 {
		next := gen()
		if next <= prev {
			t.Fatalf("id %s does not sort after %s", next, prev)
		}
		prev = next
	}
}

func TestPrefixed(t *testing.T) {
	// WHAT: Prefixed prepends the entity prefix to every generated ID.
	gen := idgen.Prefixed("snp_", idgen.UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "snp_") {
		t.Errorf("id %s missing snp_ prefix", id)
	}
	if len(id) != len("snp_")+36 {
		t.Errorf("id %s has unexpected length %d", id, len(id))
	}
}
