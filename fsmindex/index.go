// Package fsmindex builds the vocabulary-indexed token-level automaton the
// spec calls "Index": precomputed token-level DFA of (regex, vocabulary)
// (spec §4.E). Guides walk an Index; they never touch the underlying
// byte-level automaton directly.
package fsmindex

import (
	"fmt"

	"github.com/screenager/constrain/automaton"
	"github.com/screenager/constrain/kinderr"
	"github.com/screenager/constrain/vocab"
)

// Terminal is the pseudo-state NextState returns when id is EOS and the
// current state is final. It is not a real DFA state and has no outgoing
// transitions of its own; Guide interprets it as COMPLETED.
const Terminal = -1

// Index is a precomputed token-level DFA: for every reachable byte-DFA
// state and every vocabulary token whose bytes fully traverse that state
// without dead-ending, the id of that token is a legal transition (spec
// §4.E).
type Index struct {
	initial   int
	final     map[int]bool
	trans     map[int]map[uint32]int
	eosID     uint32
	numStates int
}

// Build compiles regex into a byte-level DFA (automaton.Compile, whose DFA
// matches whole strings; the pattern is passed as ^(?:regex)$) and then, for every reachable DFA
// state and every vocabulary token, walks the token's raw bytes through that
// state to discover token-level transitions. It fails with
// kinderr.IndexBuildError if the regex cannot be compiled or compiles to
// the empty language (no reachable final state).
func Build(regex string, v *vocab.Vocabulary) (*Index, error) {
	d, err := automaton.Compile("^(?:" + regex + ")$")
	if err != nil {
		return nil, kinderr.Wrap(kinderr.IndexBuildError, regex, "regex does not compile to a DFA", err)
	}

	idx := &Index{
		initial: d.InitialState(),
		final:   map[int]bool{},
		trans:   map[int]map[uint32]int{},
		eosID:   v.EOSID(),
	}

	visited := map[int]bool{}
	queue := []int{d.InitialState()}
	visited[d.InitialState()] = true
	reachableFinal := false

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if d.IsFinal(s) {
			idx.final[s] = true
			reachableFinal = true
		}

		row := map[uint32]int{}
		for _, token := range v.Tokens() {
			end, ok := d.StepString(s, token)
			if !ok {
				continue // dead-ended partway through the token's bytes
			}
			ids, _ := v.Get(token)
			for _, id := range ids {
				row[id] = end
			}
			if !visited[end] {
				visited[end] = true
				queue = append(queue, end)
			}
		}
		if len(row) > 0 {
			idx.trans[s] = row
		}
	}

	if !reachableFinal {
		return nil, kinderr.New(kinderr.IndexBuildError, regex, "regex compiles to the empty language (no reachable accepting state)")
	}
	idx.numStates = len(visited)
	return idx, nil
}

// InitialState returns the Index's start state.
func (idx *Index) InitialState() int { return idx.initial }

// EOSID returns the end-of-sequence id this Index was built against.
func (idx *Index) EOSID() uint32 { return idx.eosID }

// IsFinal reports whether state is an accepting state of the underlying DFA.
func (idx *Index) IsFinal(state int) bool { return idx.final[state] }

// NumStates returns the number of reachable states the Index covers.
func (idx *Index) NumStates() int { return idx.numStates }

// FinalStates returns every accepting state, in no particular order.
func (idx *Index) FinalStates() []int {
	out := make([]int, 0, len(idx.final))
	for s := range idx.final {
		out = append(out, s)
	}
	return out
}

// NextState returns the state reached from state by consuming id, or
// (0, false) if no such transition exists. Consuming the vocabulary's EOS
// id is legal exactly when state is final (spec §4.E/§9), landing on the
// Terminal pseudo-state.
func (idx *Index) NextState(state int, id uint32) (int, bool) {
	if id == idx.eosID {
		if idx.IsFinal(state) {
			return Terminal, true
		}
		return 0, false
	}
	row, ok := idx.trans[state]
	if !ok {
		return 0, false
	}
	next, ok := row[id]
	return next, ok
}

// AllowedTokens returns the set of non-EOS ids that are legal transitions
// out of state. An empty result means only EOS is legal (if state is
// final) or that the guide has entered an error state (spec §4.E).
func (idx *Index) AllowedTokens(state int) map[uint32]struct{} {
	row, ok := idx.trans[state]
	out := make(map[uint32]struct{}, len(row))
	if !ok {
		return out
	}
	for id := range row {
		out[id] = struct{}{}
	}
	return out
}

// Transitions returns the full serialisable transition table: for every
// state with outgoing edges, its id→state row (spec §4.E "transitions()").
func (idx *Index) Transitions() map[int]map[uint32]int {
	out := make(map[int]map[uint32]int, len(idx.trans))
	for s, row := range idx.trans {
		cp := make(map[uint32]int, len(row))
		for id, next := range row {
			cp[id] = next
		}
		out[s] = cp
	}
	return out
}

// String renders a short human-readable summary of the Index.
func (idx *Index) String() string {
	return fmt.Sprintf("Index{states=%d, final=%d, eos=%d}", idx.numStates, len(idx.final), idx.eosID)
}
