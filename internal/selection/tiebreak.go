package selection

import (
	"encoding/binary"
	"math/rand/v2"

	digest "github.com/opencontainers/go-digest"
)

// tieEpsilon is the score distance under which candidates count as tied.
const tieEpsilon = 0.001

// Choose picks one of names deterministically from (topic, seed).
//
// The topic seed is the first 8 bytes, little-endian, of
// sha256(topic || le64(seed)). It seeds a PCG generator whose IntN indexes
// names in the order given. Choose panics on an empty slice.
func Choose(topic string, seed uint64, names []string) string {
	switch len(names) {
	case 0:
		panic("selection: tie-break over an empty candidate set")
	case 1:
		return names[0]
	}

	topicSeed := TopicSeed(topic, seed)
	rng := rand.New(rand.NewPCG(topicSeed, topicSeed))
	return names[rng.IntN(len(names))]
}

// TopicSeed derives the per-topic generator seed.
func TopicSeed(topic string, seed uint64) uint64 {
	h := digest.SHA256.Hash()
	h.Write([]byte(topic))
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], seed)
	h.Write(le[:])
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}
