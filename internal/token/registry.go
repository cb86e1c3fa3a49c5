// Package token implements the Tokenizer & Token Registry (spec section
// 4.4): a 16-bit token space with pre-seeded static tokens for common
// extensions, directory names, permission strings, and size buckets;
// semantic equivalence classes; and adaptive dynamic-token promotion for
// the Quantum binary codec.
package token

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zeebo/xxh3"
)

// Reserved token id ranges, per spec section 3.
const (
	StaticRangeStart  uint16 = 0x0000
	StaticRangeEnd    uint16 = 0x7FFF
	DynamicRangeStart uint16 = 0x8000
	DynamicRangeEnd   uint16 = 0xFEFF
	ReservedRangeStart uint16 = 0xFF00
	ReservedRangeEnd   uint16 = 0xFFFF
)

// DefaultPromotionThreshold is the default number of observations of a
// payload before it becomes eligible for dynamic-token promotion.
const DefaultPromotionThreshold = 10

// Registry maps recurring byte strings to 16-bit ids, resolves semantic
// equivalence classes, and tracks frequency for adaptive promotion. It is
// safe for concurrent use; mutation during an active scan (adaptive
// promotion) is serialized by mu. Reads are not lock-free: each lookup takes
// mu just long enough to fetch the current snapshot, then reads that
// immutable snapshot without the lock.
type Registry struct {
	mu sync.Mutex

	idToPayload map[uint16][]byte
	payloadToID map[string]uint16 // keyed by string(payload); first-wins

	// equivalence maps a payload's interned id to its canonical id.
	equivalence map[uint16]uint16

	frequency map[string]uint64

	promotionThreshold uint64
	nextDynamic        uint16

	// snapshot is an immutable read view, replaced under mu, used by
	// lookups so that concurrent readers never observe a registry mutation
	// mid-read. It is rebuilt on every mutating call; mutations during a
	// scan are expected to be infrequent (only on promotion), so the copy
	// cost is acceptable.
	snapshot *snapshotView
}

type snapshotView struct {
	idToPayload map[uint16][]byte
	payloadToID map[string]uint16
	equivalence map[uint16]uint16
}

// NewRegistry constructs an empty Registry pre-seeded with the static token
// table (seed.go) and the given promotion threshold. A threshold of 0 uses
// DefaultPromotionThreshold.
func NewRegistry(promotionThreshold uint64) *Registry {
	if promotionThreshold == 0 {
		promotionThreshold = DefaultPromotionThreshold
	}
	r := &Registry{
		idToPayload:        make(map[uint16][]byte),
		payloadToID:        make(map[string]uint16),
		equivalence:         make(map[uint16]uint16),
		frequency:           make(map[string]uint64),
		promotionThreshold:  promotionThreshold,
		nextDynamic:         DynamicRangeStart,
	}
	seedStatic(r)
	r.rebuildSnapshot()
	return r
}

func (r *Registry) rebuildSnapshot() {
	idCopy := make(map[uint16][]byte, len(r.idToPayload))
	for k, v := range r.idToPayload {
		idCopy[k] = v
	}
	payloadCopy := make(map[string]uint16, len(r.payloadToID))
	for k, v := range r.payloadToID {
		payloadCopy[k] = v
	}
	eqCopy := make(map[uint16]uint16, len(r.equivalence))
	for k, v := range r.equivalence {
		eqCopy[k] = v
	}
	r.snapshot = &snapshotView{idToPayload: idCopy, payloadToID: payloadCopy, equivalence: eqCopy}
}

// registerStatic inserts a static token. Used only during seeding.
func (r *Registry) registerStatic(id uint16, payload string) {
	if _, exists := r.idToPayload[id]; exists {
		return
	}
	r.idToPayload[id] = []byte(payload)
	if _, exists := r.payloadToID[payload]; !exists {
		r.payloadToID[payload] = id
	}
}

// registerEquivalence declares that payload resolves to canonicalID: both
// the payload's own static id (if it has one) and lookups of the raw
// payload string map to canonicalID via Lookup.
func (r *Registry) registerEquivalence(payload string, canonicalID uint16) {
	if id, ok := r.payloadToID[payload]; ok {
		r.equivalence[id] = canonicalID
	}
	r.payloadToID[payload] = canonicalID
}

// Lookup resolves payload to a token id following the order mandated by
// spec section 4.4: canonical equivalence -> static id -> dynamic id ->
// unknown (ok == false).
func (r *Registry) Lookup(payload []byte) (id uint16, ok bool) {
	snap := r.currentSnapshot()
	key := string(payload)

	if id, found := snap.payloadToID[key]; found {
		if canon, hasEq := snap.equivalence[id]; hasEq {
			return canon, true
		}
		return id, true
	}
	return 0, false
}

func (r *Registry) currentSnapshot() *snapshotView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Resolve returns the payload bytes for a known token id, or (nil, false)
// for an unknown id -- used by the decoder to resolve both static and
// dynamic tokens, including those imported from a TOKENS: export header.
func (r *Registry) Resolve(id uint16) ([]byte, bool) {
	snap := r.currentSnapshot()
	payload, ok := snap.idToPayload[id]
	return payload, ok
}

// Observe records one occurrence of payload for adaptive promotion
// purposes. When the observation count reaches the promotion threshold and
// dynamic space remains, payload is promoted to a new dynamic token id.
// Promotion order is deterministic for a given sequence of Observe calls:
// a payload is promoted in the call where its count reaches the threshold,
// so ids are assigned in the order payloads cross it; payloads are not
// sorted.
func (r *Registry) Observe(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := string(payload)
	if _, alreadyTokenized := r.payloadToID[key]; alreadyTokenized {
		return
	}

	r.frequency[key]++
	if r.frequency[key] < r.promotionThreshold {
		return
	}
	if r.nextDynamic > DynamicRangeEnd {
		return // dynamic space exhausted; payload remains a literal forever.
	}

	id := r.nextDynamic
	r.nextDynamic++
	r.idToPayload[id] = append([]byte(nil), payload...)
	r.payloadToID[key] = id
	r.rebuildSnapshot()
}

// FrequencyOf returns the current observation count for payload, for
// diagnostics and tests.
func (r *Registry) FrequencyOf(payload []byte) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frequency[string(payload)]
}

// DynamicTokens returns every currently-promoted dynamic token id and its
// payload, sorted by id -- the content of a Quantum TOKENS: export header.
func (r *Registry) DynamicTokens() []DynamicToken {
	snap := r.currentSnapshot()
	out := make([]DynamicToken, 0)
	for id, payload := range snap.idToPayload {
		if id >= DynamicRangeStart && id <= DynamicRangeEnd {
			out = append(out, DynamicToken{ID: id, Payload: append([]byte(nil), payload...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DynamicToken is one exported dynamic-token mapping.
type DynamicToken struct {
	ID      uint16
	Payload []byte
}

// ImportDynamicTokens installs decoder-side dynamic tokens parsed from a
// Quantum TOKENS: header, so a decoder sharing the encoder's registry state
// can resolve them. Returns an error if any id falls outside the dynamic
// range.
func (r *Registry) ImportDynamicTokens(tokens []DynamicToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tok := range tokens {
		if tok.ID < DynamicRangeStart || tok.ID > DynamicRangeEnd {
			return fmt.Errorf("token: imported id 0x%04x outside dynamic range", tok.ID)
		}
		r.idToPayload[tok.ID] = append([]byte(nil), tok.Payload...)
		r.payloadToID[string(tok.Payload)] = tok.ID
	}
	r.rebuildSnapshot()
	return nil
}

// StructuralHashSeed returns a registry-derived xxh3 seed value, used by
// the statistics aggregator so that the structural digest mixes in which
// token dictionary version produced it (registries differ across scans
// only when adaptive promotion has occurred, keeping the digest stable for
// static-only scans as spec section 8 property 5 requires).
func (r *Registry) StructuralHashSeed() uint64 {
	snap := r.currentSnapshot()
	if len(snap.idToPayload) == len(seedEntries) {
		return 0 // no dynamic promotions yet: seed is the neutral default.
	}
	h := xxh3.New()
	for _, tok := range r.DynamicTokens() {
		h.Write(tok.Payload)
	}
	return h.Sum64()
}
