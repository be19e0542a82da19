// Package automaton compiles a regex pattern into a deterministic finite
// automaton over the byte alphabet (spec "Index": "compile the regex into a
// minimal DFA over the Unicode byte alphabet... walk δ(s, b₁), δ(·, b₂)…").
//
// The compiler reuses the standard library's own regex parser and NFA
// compiler (regexp/syntax) and performs its own subset construction on top
// of the resulting program, but every rune-consuming instruction is first
// expanded into the UTF-8 byte sequences that encode its rune range. This
// is what lets the automaton walk a token's raw bytes one at a time even
// when a token's bytes are an incomplete multi-byte UTF-8 sequence (a BPE
// vocabulary routinely splits a multi-byte character across adjacent
// tokens) — a rune-level walk would decode those bytes as utf8.RuneError
// and dead-end the token for no good reason.
package automaton

import (
	"regexp/syntax"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/screenager/constrain/kinderr"
)

// DFA is a deterministic automaton over bytes. States are numbered from 0;
// state 0 is always the initial state. DeadState (-1) means "no further
// transition is possible", the universal reject state left implicit rather
// than materialised.
type DFA struct {
	classes []byteClass
	states  []dfaState
}

// DeadState is the implicit universal non-accepting sink: once reached, no
// sequence of further bytes can lead to an accepting state.
const DeadState = -1

// byteClass is both an elementary interval of the DFA's byte alphabet and,
// reused below, a single [lo,hi] byte range within a UTF-8 encoding.
type byteClass struct {
	lo, hi byte
}

type dfaState struct {
	final bool
	trans []int // indexed by class index, value is a state index or DeadState
}

// Compile parses pattern with Perl syntax (the dialect dslterm/schema emit)
// and determinizes it into a byte-level DFA. The DFA always matches whole
// strings: walking starts at the pattern's beginning and Accepts requires a
// final state after the last byte. Empty-width assertions (^, $, \b, ...)
// are treated as always satisfied (see closure), so wrapping pattern in
// ^...$ does not change what it accepts.
func Compile(pattern string) (*DFA, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.UnsupportedSchema, pattern, "invalid regex syntax", err)
	}
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		return nil, kinderr.Wrap(kinderr.UnsupportedSchema, pattern, "could not compile regex to a program", err)
	}

	realEdges, synth := buildByteGraph(prog)
	classes := elementaryClasses(realEdges, synth)
	b := &builder{
		prog:      prog,
		realEdges: realEdges,
		synth:     synth,
		indexOf:   map[string]int{},
	}

	startSet := b.closure(map[uint32]bool{uint32(prog.Start): true})
	b.addState(startSet)
	for frontier := 0; frontier < len(b.idSets); frontier++ {
		set := b.idSets[frontier]
		trans := make([]int, len(classes))
		for ci, cls := range classes {
			next := b.step(set, cls.lo)
			if len(next) == 0 {
				trans[ci] = DeadState
				continue
			}
			closed := b.closure(next)
			trans[ci] = b.addState(closed)
		}
		b.states[frontier].trans = trans
	}

	return &DFA{classes: classes, states: b.states}, nil
}

// InitialState returns the DFA's start state.
func (d *DFA) InitialState() int { return 0 }

// IsFinal reports whether state is an accepting state.
func (d *DFA) IsFinal(state int) bool {
	if state == DeadState || state < 0 || state >= len(d.states) {
		return false
	}
	return d.states[state].final
}

// Step advances state by one byte, returning the next state (or DeadState).
func (d *DFA) Step(state int, b byte) int {
	if state == DeadState || state < 0 || state >= len(d.states) {
		return DeadState
	}
	ci := d.classIndex(b)
	if ci < 0 {
		return DeadState
	}
	return d.states[state].trans[ci]
}

// StepString walks s byte by byte from state, returning the resulting state
// and whether every byte was consumed without hitting DeadState. s need not
// be valid UTF-8: a token whose raw bytes are a truncated multi-byte
// sequence is still walked one byte at a time, exactly as a real BPE
// vocabulary requires.
func (d *DFA) StepString(state int, s string) (int, bool) {
	for i := 0; i < len(s); i++ {
		state = d.Step(state, s[i])
		if state == DeadState {
			return DeadState, false
		}
	}
	return state, true
}

// Accepts reports whether s is fully matched from the initial state.
func (d *DFA) Accepts(s string) bool {
	end, ok := d.StepString(d.InitialState(), s)
	return ok && d.IsFinal(end)
}

// NumStates reports how many states the DFA has.
func (d *DFA) NumStates() int { return len(d.states) }

func (d *DFA) classIndex(b byte) int {
	i := sort.Search(len(d.classes), func(i int) bool { return d.classes[i].hi >= b })
	if i < len(d.classes) && d.classes[i].lo <= b && b <= d.classes[i].hi {
		return i
	}
	return -1
}

// byteEdge is a single consuming transition in the unified id space: bytes
// in [lo,hi] lead to id `to`. Ids below the program's instruction count
// address a real regexp/syntax program counter; ids at or above it address
// a synth entry.
type byteEdge struct {
	lo, hi byte
	to     uint32
}

// synthNode is an intermediate state partway through a multi-byte UTF-8
// sequence. It has exactly one outgoing edge, continuing the chain toward
// the real instruction the original rune-consuming edge targets — it is
// never itself a closure/match candidate, only a waypoint between bytes.
type synthNode struct {
	edge byteEdge
}

// builder runs the epsilon-closure/subset-construction algorithm over a
// compiled regexp/syntax.Prog whose rune-consuming edges have already been
// expanded into byte chains (see buildByteGraph).
type builder struct {
	prog      *syntax.Prog
	realEdges map[uint32][]byteEdge
	synth     []synthNode
	states    []dfaState
	idSets    []map[uint32]bool
	indexOf   map[string]int
}

func (b *builder) numInst() uint32 { return uint32(len(b.prog.Inst)) }

func (b *builder) addState(set map[uint32]bool) int {
	key := setKey(set)
	if idx, ok := b.indexOf[key]; ok {
		return idx
	}
	idx := len(b.states)
	b.indexOf[key] = idx
	b.states = append(b.states, dfaState{final: b.isMatch(set)})
	b.idSets = append(b.idSets, set)
	return idx
}

func setKey(set map[uint32]bool) string {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(id))
	}
	return sb.String()
}

// closure computes the epsilon-closure of a set of unified ids: following
// InstAlt/InstAltMatch/InstCapture/InstNop/InstEmptyWidth edges for real
// program counters, which consume no input. Synthetic ids are mid-sequence
// waypoints, not program positions, so they pass through unchanged.
// Assertions (^, $, \b, ...) are treated as always satisfied — a deliberate
// simplification for patterns built by this module's own compiler
// (regexconst/schema/dslterm), none of which anchor mid-pattern;
// whole-string matching comes from the subset construction itself, which
// starts at the program's entry and checks finality after the last byte.
func (b *builder) closure(start map[uint32]bool) map[uint32]bool {
	out := map[uint32]bool{}
	var visit func(id uint32)
	visit = func(id uint32) {
		if out[id] {
			return
		}
		if id >= b.numInst() {
			out[id] = true
			return
		}
		inst := &b.prog.Inst[id]
		switch inst.Op {
		case syntax.InstAlt, syntax.InstAltMatch:
			out[id] = true
			visit(inst.Out)
			visit(inst.Arg)
		case syntax.InstCapture, syntax.InstNop, syntax.InstEmptyWidth:
			out[id] = true
			visit(inst.Out)
		case syntax.InstFail:
			// dead end, contributes nothing
		default:
			out[id] = true
		}
	}
	for id := range start {
		visit(id)
	}
	return out
}

// isMatch reports whether any real program counter in set is an InstMatch.
func (b *builder) isMatch(set map[uint32]bool) bool {
	numInst := b.numInst()
	for id := range set {
		if id < numInst && b.prog.Inst[id].Op == syntax.InstMatch {
			return true
		}
	}
	return false
}

// step follows every outgoing byte edge matching lo from each id in set,
// returning the successor id set (before closure).
func (b *builder) step(set map[uint32]bool, lo byte) map[uint32]bool {
	numInst := b.numInst()
	out := map[uint32]bool{}
	for id := range set {
		var edges []byteEdge
		if id < numInst {
			edges = b.realEdges[id]
		} else {
			edges = []byteEdge{b.synth[id-numInst].edge}
		}
		for _, e := range edges {
			if e.lo <= lo && lo <= e.hi {
				out[e.to] = true
			}
		}
	}
	return out
}

// buildByteGraph walks every rune-consuming instruction in prog and expands
// its rune range(s) into UTF-8 byte-sequence chains, recording one edge per
// real program counter (to the first byte of each sequence) plus any
// synthetic waypoint states a multi-byte sequence needs.
func buildByteGraph(prog *syntax.Prog) (map[uint32][]byteEdge, []synthNode) {
	realEdges := make(map[uint32][]byteEdge)
	var synth []synthNode
	numInst := uint32(len(prog.Inst))

	addChain := func(from uint32, seq utf8Sequence, to uint32) {
		cur := to
		for i := len(seq) - 1; i >= 1; i-- {
			synth = append(synth, synthNode{edge: byteEdge{lo: seq[i].lo, hi: seq[i].hi, to: cur}})
			cur = numInst + uint32(len(synth)-1)
		}
		realEdges[from] = append(realEdges[from], byteEdge{lo: seq[0].lo, hi: seq[0].hi, to: cur})
	}

	for pc := range prog.Inst {
		inst := &prog.Inst[pc]
		switch inst.Op {
		case syntax.InstRune, syntax.InstRune1:
			ranges := expandedRuneRanges(inst)
			for i := 0; i+1 < len(ranges); i += 2 {
				for _, seq := range utf8Ranges(ranges[i], ranges[i+1]) {
					addChain(uint32(pc), seq, inst.Out)
				}
			}
		case syntax.InstRuneAny:
			for _, seq := range utf8Ranges(0, utf8.MaxRune) {
				addChain(uint32(pc), seq, inst.Out)
			}
		case syntax.InstRuneAnyNotNL:
			for _, seq := range utf8Ranges(0, '\n'-1) {
				addChain(uint32(pc), seq, inst.Out)
			}
			for _, seq := range utf8Ranges('\n'+1, utf8.MaxRune) {
				addChain(uint32(pc), seq, inst.Out)
			}
		}
	}
	return realEdges, synth
}

// foldExpansionLimit bounds how large a rune range this package will walk
// rune-by-rune to expand runtime case folding. regexp/syntax pre-expands
// fold equivalents into explicit ranges for ordinary character classes at
// parse time; only the single-rune-literal optimisation (InstRune1) defers
// folding to match time via unicode.SimpleFold, and that range is always
// exactly one rune wide, so this limit is never exercised in practice — it
// exists so a future syntax.Prog change can't turn this into an accidental
// O(range) blowup.
const foldExpansionLimit = 128

// instRuneRanges normalises InstRune/InstRune1's rune storage (a single
// rune, or lo/hi pairs) into a flat lo,hi pair slice.
func instRuneRanges(inst *syntax.Inst) []rune {
	switch inst.Op {
	case syntax.InstRune1:
		if len(inst.Rune) == 0 {
			return nil
		}
		return []rune{inst.Rune[0], inst.Rune[0]}
	case syntax.InstRune:
		return inst.Rune
	default:
		return nil
	}
}

// expandedRuneRanges is instRuneRanges plus runtime case-fold expansion
// (spec §4.C/§4.A patterns never set FoldCase themselves, but automaton.Compile
// is also reachable through dslterm.Regex/FSM with caller-supplied syntax, so
// `(?i)` needs to work correctly here too).
func expandedRuneRanges(inst *syntax.Inst) []rune {
	rs := instRuneRanges(inst)
	if syntax.Flags(inst.Arg)&syntax.FoldCase == 0 || len(rs) == 0 {
		return rs
	}
	out := append([]rune(nil), rs...)
	for i := 0; i+1 < len(rs); i += 2 {
		lo, hi := rs[i], rs[i+1]
		if hi-lo+1 > foldExpansionLimit {
			continue
		}
		for r := lo; r <= hi; r++ {
			for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
				out = append(out, f, f)
			}
		}
	}
	return out
}

// utf8Sequence is a fixed-length (1 to 4 byte) chain of byte ranges: the set
// of byte strings it denotes is exactly the UTF-8 encoding of some
// contiguous rune range.
type utf8Sequence []byteClass

// utf8Ranges decomposes the rune range [lo,hi] into the minimal set of
// utf8Sequences whose union is its UTF-8 encoding, splitting around the
// UTF-16 surrogate range and UTF-8 encoded-length boundaries first. This is
// the standard byte-range decomposition used by byte-level regex engines
// (e.g. RE2, rust-lang/regex's utf8-ranges) to compile a Unicode-rune NFA
// down to a byte-rune-free one.
func utf8Ranges(lo, hi rune) []utf8Sequence {
	var out []utf8Sequence
	splitByLength(lo, hi, &out)
	return out
}

var encodedLengthMax = [4]rune{0x7F, 0x7FF, 0xFFFF, utf8.MaxRune}

func splitByLength(lo, hi rune, out *[]utf8Sequence) {
	if lo > hi {
		return
	}
	if lo <= 0xDFFF && hi >= 0xD800 {
		if lo < 0xD800 {
			splitByLength(lo, 0xD7FF, out)
		}
		if hi > 0xDFFF {
			splitByLength(0xE000, hi, out)
		}
		return
	}
	for _, max := range encodedLengthMax {
		if lo <= max {
			if hi > max {
				splitByLength(lo, max, out)
				splitByLength(max+1, hi, out)
			} else {
				splitBytes(encodeUTF8(lo), encodeUTF8(hi), out)
			}
			return
		}
	}
}

func encodeUTF8(r rune) []byte {
	buf := make([]byte, utf8.RuneLen(r))
	utf8.EncodeRune(buf, r)
	return buf
}

// splitBytes decomposes the byte-lexicographic range [lo,hi] (two equal-length
// UTF-8 encodings) into utf8Sequences. Continuation bytes always range over
// [0x80,0xBF]; the classic three-way split peels off a prefix fragment (lo's
// leading byte paired with lo's tail up to all-0xBF) and a suffix fragment
// (hi's leading byte paired with all-0x80 up to hi's tail) whenever the tail
// isn't already at its extreme, leaving a uniform middle range covering
// every leading byte strictly between them.
func splitBytes(lo, hi []byte, out *[]utf8Sequence) {
	n := len(lo)
	if n == 1 {
		*out = append(*out, utf8Sequence{{lo[0], hi[0]}})
		return
	}
	if lo[0] == hi[0] {
		var tails []utf8Sequence
		splitBytes(lo[1:], hi[1:], &tails)
		for _, t := range tails {
			*out = append(*out, prependByteRange(lo[0], lo[0], t))
		}
		return
	}

	midStart, midEnd := lo[0], hi[0]

	if !isAllByte(lo[1:], 0x80) {
		var tails []utf8Sequence
		splitBytes(lo[1:], repeatByte(0xBF, n-1), &tails)
		for _, t := range tails {
			*out = append(*out, prependByteRange(lo[0], lo[0], t))
		}
		midStart = lo[0] + 1
	}
	if !isAllByte(hi[1:], 0xBF) {
		var tails []utf8Sequence
		splitBytes(repeatByte(0x80, n-1), hi[1:], &tails)
		for _, t := range tails {
			*out = append(*out, prependByteRange(hi[0], hi[0], t))
		}
		midEnd = hi[0] - 1
	}
	if midStart <= midEnd {
		seq := make(utf8Sequence, 0, n)
		seq = append(seq, byteClass{midStart, midEnd})
		for i := 0; i < n-1; i++ {
			seq = append(seq, byteClass{0x80, 0xBF})
		}
		*out = append(*out, seq)
	}
}

func prependByteRange(lo, hi byte, t utf8Sequence) utf8Sequence {
	seq := make(utf8Sequence, 0, len(t)+1)
	seq = append(seq, byteClass{lo, hi})
	return append(seq, t...)
}

func isAllByte(bs []byte, v byte) bool {
	for _, b := range bs {
		if b != v {
			return false
		}
	}
	return true
}

func repeatByte(v byte, n int) []byte {
	bs := make([]byte, n)
	for i := range bs {
		bs[i] = v
	}
	return bs
}

// elementaryClasses partitions the byte space [0,255] into maximal
// intervals that every byte edge either wholly contains or wholly excludes,
// so every byte in a class behaves identically with respect to every
// consuming edge.
func elementaryClasses(realEdges map[uint32][]byteEdge, synth []synthNode) []byteClass {
	boundarySet := map[int]bool{0: true, 256: true}
	mark := func(lo, hi byte) {
		boundarySet[int(lo)] = true
		boundarySet[int(hi)+1] = true
	}
	for _, edges := range realEdges {
		for _, e := range edges {
			mark(e.lo, e.hi)
		}
	}
	for _, n := range synth {
		mark(n.edge.lo, n.edge.hi)
	}
	bounds := make([]int, 0, len(boundarySet))
	for bnd := range boundarySet {
		bounds = append(bounds, bnd)
	}
	sort.Ints(bounds)

	classes := make([]byteClass, 0, len(bounds))
	for i := 0; i+1 < len(bounds); i++ {
		classes = append(classes, byteClass{lo: byte(bounds[i]), hi: byte(bounds[i+1] - 1)})
	}
	return classes
}
