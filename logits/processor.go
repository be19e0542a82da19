// Package logits implements the decoding-loop hook that masks a model's
// per-step logits down to whatever an Index/Guide currently allows (spec
// §4.G). The processor never touches tensor internals directly; all numeric
// work goes through a tensor.Backend.
package logits

import (
	"encoding/binary"
	"fmt"

	"github.com/screenager/constrain/cfg"
	"github.com/screenager/constrain/fsmindex"
	"github.com/screenager/constrain/guide"
	"github.com/screenager/constrain/kinderr"
	"github.com/screenager/constrain/schema"
	"github.com/screenager/constrain/tensor"
	"github.com/screenager/constrain/vocab"
)

// Processor is the shared contract every constructor below returns (spec
// §4.G `__call__`): mask logitsIn down to what generatedIDs' Guide state
// currently allows, and return the (possibly new) tensor.
type Processor interface {
	Process(generatedIDs [][]int64, logitsIn tensor.Tensor) (tensor.Tensor, error)
}

// rowEntry is one batch row's memoised Guide, keyed by the post-prompt
// fingerprint of that row's generated ids so far (spec §6 "Sequence
// fingerprint").
type rowEntry struct {
	guide *guide.Guide
}

// processor is the shared implementation backing every constructor; the
// exported types below are thin aliases distinguishing how the underlying
// Index was built, matching spec.md's four named variants.
type processor struct {
	index       *fsmindex.Index
	backend     tensor.Backend
	maxRollback int

	hasSeqStart bool
	seqStart    int
	rows        map[string]*rowEntry
}

func newProcessor(index *fsmindex.Index, backend tensor.Backend, maxRollback int) *processor {
	if maxRollback <= 0 {
		maxRollback = guide.DefaultMaxRollback
	}
	return &processor{
		index:       index,
		backend:     backend,
		maxRollback: maxRollback,
		rows:        make(map[string]*rowEntry),
	}
}

// RegexProcessor drives decoding with an Index built directly from a regex.
type RegexProcessor struct{ *processor }

// NewRegexProcessor compiles regex into a memoised Index and returns a
// Processor enforcing it.
func NewRegexProcessor(regex string, v *vocab.Vocabulary, backend tensor.Backend, maxRollback int) (*RegexProcessor, error) {
	idx, err := fsmindex.BuildMemoized(regex, v)
	if err != nil {
		return nil, err
	}
	return &RegexProcessor{newProcessor(idx, backend, maxRollback)}, nil
}

// JSONProcessor drives decoding with an Index built from a JSON Schema.
type JSONProcessor struct{ *processor }

// NewJSONProcessor compiles a JSON Schema document to a regex (package
// schema), builds a memoised Index from it, and returns a Processor
// enforcing it.
func NewJSONProcessor(schemaJSON []byte, opts schema.Options, v *vocab.Vocabulary, backend tensor.Backend, maxRollback int) (*JSONProcessor, error) {
	regex, err := schema.FromSchema(schemaJSON, opts)
	if err != nil {
		return nil, err
	}
	idx, err := fsmindex.BuildMemoized(regex, v)
	if err != nil {
		return nil, err
	}
	return &JSONProcessor{newProcessor(idx, backend, maxRollback)}, nil
}

// GuideProcessor drives decoding with a caller-supplied, already-built
// Index — the escape hatch for any DSL term or hand-built automaton that
// doesn't fit the regex/JSON-Schema constructors.
type GuideProcessor struct{ *processor }

// NewGuideProcessor wraps an existing Index directly.
func NewGuideProcessor(idx *fsmindex.Index, backend tensor.Backend, maxRollback int) *GuideProcessor {
	return &GuideProcessor{newProcessor(idx, backend, maxRollback)}
}

// CFGProcessor drives decoding with an Index compiled from a cfg.Grammar
// (spec §4.G, "best-effort... not part of the conformance surface" — a
// Grammar that cannot be rendered to a regular expression, e.g. one that
// self-recurses past cfg.MaxDepth, fails at construction rather than
// silently approximating).
type CFGProcessor struct{ *processor }

// NewCFGProcessor compiles g to a regex (package cfg) and builds a
// memoised Index from it.
func NewCFGProcessor(g cfg.Grammar, v *vocab.Vocabulary, backend tensor.Backend, maxRollback int) (*CFGProcessor, error) {
	regex, err := cfg.Compile(g)
	if err != nil {
		return nil, err
	}
	idx, err := fsmindex.BuildMemoized(regex, v)
	if err != nil {
		return nil, err
	}
	return &CFGProcessor{newProcessor(idx, backend, maxRollback)}, nil
}

// fingerprint renders a row's post-prompt id slice to a map key (spec §6
// "Sequence fingerprint"). Ids are little-endian int64-packed rather than
// joined as text, since row lengths vary and a separator could collide with
// digits of an id.
func fingerprint(ids []int64) string {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(id))
	}
	return string(buf)
}

// guideForRow returns the Guide for gen, the memoised one on an exact hit,
// one stepped from gen[:-1]'s memoised Guide on a parent hit, or a freshly
// replayed Guide when neither is cached (spec §6: "on miss, look up the
// parent key gen[:-1], step it by gen[-1]").
func (p *processor) guideForRow(gen []int64) (*guide.Guide, error) {
	key := fingerprint(gen)
	if e, ok := p.rows[key]; ok {
		return e.guide, nil
	}
	if len(gen) == 0 {
		g := guide.New(p.index, guide.Options{MaxRollback: p.maxRollback})
		p.rows[key] = &rowEntry{guide: g}
		return g, nil
	}
	if parent, ok := p.rows[fingerprint(gen[:len(gen)-1])]; ok {
		g := parent.guide.Clone()
		if err := g.Advance(uint32(gen[len(gen)-1])); err != nil {
			return nil, err
		}
		p.rows[key] = &rowEntry{guide: g}
		return g, nil
	}
	// Cold row with no recorded ancestor (e.g. a batch row added mid-run):
	// replay the whole post-prompt history from the initial state.
	g := guide.New(p.index, guide.Options{MaxRollback: p.maxRollback})
	for _, id := range gen {
		if err := g.Advance(uint32(id)); err != nil {
			return nil, err
		}
	}
	p.rows[key] = &rowEntry{guide: g}
	return g, nil
}

// Process implements Processor (spec §4.G full algorithm).
func (p *processor) Process(generatedIDs [][]int64, logitsIn tensor.Tensor) (tensor.Tensor, error) {
	lt := logitsIn
	squeeze := false
	if len(lt.Shape()) == 1 {
		nt, err := p.backend.Unsqueeze(lt, 0)
		if err != nil {
			return nil, err
		}
		lt, squeeze = nt, true
	}
	shape := p.backend.Shape(lt)
	if len(shape) != 2 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "logits must be rank 1 or 2")
	}
	batch, vocabSize := shape[0], shape[1]
	if len(generatedIDs) != batch {
		return nil, kinderr.New(kinderr.ShapeMismatch, "",
			fmt.Sprintf("generated_ids batch %d != logits batch %d", len(generatedIDs), batch))
	}

	if !p.hasSeqStart {
		if batch > 0 {
			p.seqStart = len(generatedIDs[0])
		}
		p.hasSeqStart = true
	}

	maskRows := make([][]float64, batch)
	for b := 0; b < batch; b++ {
		row := generatedIDs[b]
		var gen []int64
		if p.seqStart < len(row) {
			gen = row[p.seqStart:]
		}
		g, err := p.guideForRow(gen)
		if err != nil {
			return nil, err
		}
		mask := make([]float64, vocabSize)
		for j := range mask {
			mask[j] = 1 // forbidden until proven otherwise
		}
		if !g.IsFinished() {
			for id := range g.AllowedIDs() {
				if int(id) < vocabSize {
					mask[id] = 0
				}
			}
		}
		maskRows[b] = mask
	}

	maskTensor, err := p.backend.FromFloat2D(maskRows)
	if err != nil {
		return nil, err
	}
	out, err := p.backend.ApplyMask(lt, maskTensor)
	if err != nil {
		return nil, err
	}
	if squeeze {
		return p.backend.Squeeze(out, 0)
	}
	return out, nil
}
