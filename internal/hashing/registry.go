// Package hashing provides the checksum algorithm registry and the streaming
// digest computer used by every fixity pipeline.
//
// The registry maps an algorithm identifier to an incremental hasher
// factory. It spans a guaranteed cryptographic family (md5, sha1, sha256,
// sha512) and a fast family (blake3, xxh64). Adding an algorithm means
// adding a table entry; callers never change.
package hashing

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

var factories = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
	"blake3": func() hash.Hash { return blake3.New() },
	"xxh64":  func() hash.Hash { return xxhash.New() },
}

// Names returns the supported algorithm identifiers in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supported reports whether the identifier names a registered algorithm.
func Supported(name string) bool {
	_, ok := factories[name]
	return ok
}

// New returns a fresh incremental hasher for the named algorithm.
func New(name string) (hash.Hash, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unsupported algorithm %q (supported: %v)", name, Names())
	}
	return factory(), nil
}
