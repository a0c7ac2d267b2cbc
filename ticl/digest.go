package ticl

import (
	"crypto/sha1"

	"golang.org/x/exp/slices"

	"ticl.dev/ticl/protocol"
)

// ObjectIdDigest returns the digest identifying one object: SHA-1 over the
// object id's wire encoding.
func ObjectIdDigest(objectId protocol.ObjectId) []byte {
	sum := sha1.Sum(objectId.Marshal())
	return sum[:]
}

// setDigest combines per-object digests into one digest for the whole set.
// The digests are sorted before hashing so the result does not depend on
// insertion order.
func setDigest(objectDigests [][]byte) []byte {
	ordered := slices.Clone(objectDigests)
	slices.SortFunc(ordered, func(a []byte, b []byte) int {
		return slices.Compare(a, b)
	})
	h := sha1.New()
	for _, digest := range ordered {
		h.Write(digest)
	}
	return h.Sum(nil)
}

// digestPrefixMatch is true when the first `prefixLen` bits of `digest`
// equal those of `prefix`.
func digestPrefixMatch(digest []byte, prefix []byte, prefixLen int) bool {
	if prefixLen <= 0 {
		return true
	}
	fullBytes := prefixLen / 8
	remBits := prefixLen % 8
	if len(prefix) < fullBytes || len(digest) < fullBytes {
		return false
	}
	if !slices.Equal(digest[:fullBytes], prefix[:fullBytes]) {
		return false
	}
	if remBits == 0 {
		return true
	}
	if len(prefix) <= fullBytes || len(digest) <= fullBytes {
		return false
	}
	mask := byte(0xff << (8 - remBits))
	return digest[fullBytes]&mask == prefix[fullBytes]&mask
}
