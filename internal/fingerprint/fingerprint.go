// Package fingerprint computes content hashes over a canonical serialization
// so that identical inputs produce identical, algorithm-tagged digests.
package fingerprint

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

// canonicalJSON sorts object keys and never escapes HTML so that the byte form
// depends only on the value.
var canonicalJSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Canonical returns the canonical JSON encoding of v.
//
// v is first encoded with its own JSON tags, then decoded into a generic tree
// (numbers kept verbatim) and re-encoded with sorted keys and no insignificant
// whitespace. Struct field order therefore does not leak into the result.
func Canonical(v any) ([]byte, error) {
	first, err := canonicalJSON.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode value")
	}

	var tree any
	dec := canonicalJSON.NewDecoder(bytes.NewReader(first))
	if err := dec.Decode(&tree); err != nil {
		return nil, errors.Wrap(err, "decode canonical tree")
	}

	out, err := canonicalJSON.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(err, "encode canonical tree")
	}
	return out, nil
}

// Of returns the SHA-256 digest of v's canonical form, rendered as
// "sha256:<64 hex chars>".
func Of(v any) (digest.Digest, error) {
	b, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return digest.FromBytes(b), nil
}

// Bytes digests raw bytes that are already canonical.
func Bytes(b []byte) digest.Digest {
	return digest.FromBytes(b)
}

// Check reports whether s is a well-formed digest string of the canonical
// algorithm.
func Check(s string) error {
	d, err := digest.Parse(s)
	if err != nil {
		return err
	}
	if d.Algorithm() != digest.Canonical {
		return errors.Errorf("unexpected digest algorithm %q", d.Algorithm())
	}
	return nil
}
