package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep digests of different record types apart. The
// version suffix allows the encoding to change later.
const (
	DomainHierarchy = "gpi/hierarchy/v1"
	DomainTrace     = "gpi/trace/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the content digest of a hierarchy dump. Two dumps of the
// same design through the same backend have equal digests.
func Digest(n *Node) (string, error) {
	data, err := MarshalCanonical(n.Object())
	if err != nil {
		return "", fmt.Errorf("Digest: %w", err)
	}
	return hashWithDomain(DomainHierarchy, data), nil
}

// TraceDigest returns the digest of an ordered list of trace lines, as
// printed by a scenario run.
func TraceDigest(lines []string) (string, error) {
	arr := make(Array, len(lines))
	for i, l := range lines {
		arr[i] = String(l)
	}
	data, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("TraceDigest: %w", err)
	}
	return hashWithDomain(DomainTrace, data), nil
}
