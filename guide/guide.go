// Package guide implements the per-sequence cursor over an Index: a small
// explicit state machine with bounded rollback (spec §4.F). Unlike the
// source's mutable parser_state/prev_token pair, the only mutable fields
// here are the state id, status, and the ring buffer (spec §9).
package guide

import (
	"fmt"
	"sort"

	"github.com/screenager/constrain/fsmindex"
	"github.com/screenager/constrain/kinderr"
)

// Status is the Guide's coarse lifecycle phase.
type Status int

const (
	Active Status = iota
	Completed
	Error
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Completed:
		return "COMPLETED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// InstructionKind distinguishes a deterministic single emission from a
// constrained sample over several legal ids.
type InstructionKind int

const (
	Write InstructionKind = iota
	Generate
)

// Instruction is the Guide's answer to "what can legally happen next?"
// (spec §4.F `next_instruction`).
type Instruction struct {
	Kind InstructionKind
	IDs  []uint32
}

// DefaultMaxRollback is used when Options.MaxRollback is non-positive,
// matching the public API's documented default (spec §6: "max_rollback?=32").
const DefaultMaxRollback = 32

// Options configures a new Guide.
type Options struct {
	// MaxRollback bounds the rollback ring buffer's depth. Non-positive
	// values fall back to DefaultMaxRollback.
	MaxRollback int
}

// Guide is a single sequence's cursor over a shared, read-only Index (spec
// §5 "Shared resources"). It is not safe for concurrent use from multiple
// goroutines — one Guide belongs to exactly one sequence.
type Guide struct {
	index       *fsmindex.Index
	status      Status
	state       int
	cache       []int // ring buffer of prior state ids, oldest first
	maxRollback int
}

// New constructs a Guide positioned at index's initial state.
func New(index *fsmindex.Index, opts Options) *Guide {
	maxRollback := opts.MaxRollback
	if maxRollback <= 0 {
		maxRollback = DefaultMaxRollback
	}
	return &Guide{
		index:       index,
		status:      Active,
		state:       index.InitialState(),
		maxRollback: maxRollback,
	}
}

// Status reports the Guide's current lifecycle phase.
func (g *Guide) Status() Status { return g.status }

// State returns the underlying Index state id the Guide is positioned at.
// It remains the last ACTIVE state after the Guide transitions to
// COMPLETED, since Terminal itself carries no further structure.
func (g *Guide) State() int { return g.state }

// IsFinished reports whether the Guide has reached COMPLETED.
func (g *Guide) IsFinished() bool { return g.status == Completed }

// EOSID returns the end-of-sequence id of the Index this Guide wraps.
func (g *Guide) EOSID() uint32 { return g.index.EOSID() }

// Tokens returns the set of non-EOS ids legal from the current state (spec
// §6 `tokens`), delegating to the Index.
func (g *Guide) Tokens() map[uint32]struct{} {
	return g.index.AllowedTokens(g.state)
}

// AllowedIDs returns every id Advance would currently accept: Tokens() plus
// the EOS id when the current state is final. NextInstruction collapses this
// to a single Write([eos]) only once Tokens() is empty, but a final state
// with other live transitions still accepts EOS (spec §4.E) — callers
// building a full logits mask need the union, not NextInstruction's
// simplification.
func (g *Guide) AllowedIDs() map[uint32]struct{} {
	allowed := g.index.AllowedTokens(g.state)
	out := make(map[uint32]struct{}, len(allowed)+1)
	for id := range allowed {
		out[id] = struct{}{}
	}
	if g.index.IsFinal(g.state) {
		out[g.index.EOSID()] = struct{}{}
	}
	return out
}

// Advance consumes id. On success the prior state is pushed onto the
// rollback cache, evicting the oldest entry once len(cache) exceeds
// maxRollback. Consuming EOS from a final state moves the Guide to
// COMPLETED rather than advancing to another Index state (spec §4.F, §9).
func (g *Guide) Advance(id uint32) error {
	if g.status != Active {
		return kinderr.New(kinderr.InvalidTransition, fmt.Sprint(id), fmt.Sprintf("guide is %s, not ACTIVE", g.status))
	}
	next, ok := g.index.NextState(g.state, id)
	if !ok {
		g.status = Error
		return kinderr.New(kinderr.InvalidTransition, fmt.Sprint(id), "no transition for this id from the current state")
	}
	g.pushCache(g.state)
	if next == fsmindex.Terminal {
		g.status = Completed
		return nil
	}
	g.state = next
	return nil
}

func (g *Guide) pushCache(state int) {
	g.cache = append(g.cache, state)
	if len(g.cache) > g.maxRollback {
		g.cache = g.cache[1:]
	}
}

// Rollback restores the state reached k Advance calls ago, popping k cache
// entries. It fails with kinderr.InvalidRollback if k exceeds the cache's
// depth, or if the Guide is in ERROR (irrecoverable except via Reset).
func (g *Guide) Rollback(k int) error {
	if g.status == Error {
		return kinderr.New(kinderr.InvalidRollback, "", "guide is in ERROR; only Reset() recovers")
	}
	if k < 0 || k > len(g.cache) {
		return kinderr.New(kinderr.InvalidRollback, "", fmt.Sprintf("k=%d exceeds cache depth %d", k, len(g.cache)))
	}
	if k == 0 {
		return nil
	}
	restored := g.cache[len(g.cache)-k]
	g.cache = g.cache[:len(g.cache)-k]
	g.state = restored
	g.status = Active
	return nil
}

// NextInstruction inspects the current state's allowed tokens and returns
// the next legal Instruction (spec §4.F). It marks the Guide ERROR if the
// state has no outgoing transitions and is not final.
func (g *Guide) NextInstruction() (Instruction, error) {
	if g.status != Active {
		return Instruction{}, kinderr.New(kinderr.InvalidTransition, "", fmt.Sprintf("guide is %s, not ACTIVE", g.status))
	}
	allowed := g.index.AllowedTokens(g.state)
	if len(allowed) == 0 {
		if g.index.IsFinal(g.state) {
			return Instruction{Kind: Write, IDs: []uint32{g.index.EOSID()}}, nil
		}
		g.status = Error
		return Instruction{}, kinderr.New(kinderr.InvalidTransition, "", "no outgoing transitions and state is not final")
	}
	ids := make([]uint32, 0, len(allowed))
	for id := range allowed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) == 1 {
		return Instruction{Kind: Write, IDs: ids}, nil
	}
	return Instruction{Kind: Generate, IDs: ids}, nil
}

// AcceptsTokens simulates Advance over ids on a copy of the cursor, without
// mutating the Guide (spec §6 `accepts_tokens`).
func (g *Guide) AcceptsTokens(ids []uint32) bool {
	state, status := g.state, g.status
	for _, id := range ids {
		if status != Active {
			return false
		}
		next, ok := g.index.NextState(state, id)
		if !ok {
			return false
		}
		if next == fsmindex.Terminal {
			status = Completed
			continue
		}
		state = next
	}
	return true
}

// Clone returns a deep, value-level copy sharing the same read-only Index.
func (g *Guide) Clone() *Guide {
	cache := make([]int, len(g.cache))
	copy(cache, g.cache)
	return &Guide{
		index:       g.index,
		status:      g.status,
		state:       g.state,
		cache:       cache,
		maxRollback: g.maxRollback,
	}
}

// Reset returns the Guide to its initial state, clearing the rollback cache.
func (g *Guide) Reset() {
	g.status = Active
	g.state = g.index.InitialState()
	g.cache = nil
}
