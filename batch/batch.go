// CLAUDE:SUMMARY Greedy batch packer enforcing block-count and byte ceilings with oversize re-chunking.
// Package batch groups blocks into batches that satisfy the remote API's
// simultaneous count and size ceilings.
//
// Batches are consumed strictly in order and are never reordered or merged
// after creation. Malformed input is repaired or replaced, never dropped.
package batch

import (
	"github.com/hazyhaar/depeche/block"
)

// Default ceilings. MaxBatchBytes is a conservative sub-limit of the remote
// ~500KB hard ceiling, leaving headroom for request envelope overhead.
const (
	DefaultMaxBlocks     = 100
	DefaultMaxBatchBytes = 200 * 1024
	DefaultMaxBlockBytes = 50 * 1024
)

// Limits bounds one batch.
type Limits struct {
	MaxBlocks     int
	MaxBatchBytes int
	MaxBlockBytes int
}

func (l *Limits) defaults() {
	if l.MaxBlocks <= 0 {
		l.MaxBlocks = DefaultMaxBlocks
	}
	if l.MaxBatchBytes <= 0 {
		l.MaxBatchBytes = DefaultMaxBatchBytes
	}
	if l.MaxBlockBytes <= 0 {
		l.MaxBlockBytes = DefaultMaxBlockBytes
	}
}

// Batch is one ordered, bounded group of blocks sent in a single API call.
type Batch struct {
	Blocks []block.Block
	Bytes  int
}

// Stats counts what validation and packing had to do.
type Stats struct {
	Blocks    int // blocks packed (after splitting/substitution)
	Repaired  int // raw blocks with injected default payloads
	Replaced  int // raw blocks substituted by fallback paragraphs
	Split     int // oversized blocks re-chunked into several
	Fallbacks int // unsplittable oversized chunks replaced by notices
}

// Pack validates and packs typed blocks into ceiling-compliant batches.
func Pack(blocks []block.Block, limits Limits) ([]Batch, Stats) {
	limits.defaults()

	var stats Stats
	var batches []Batch
	current := Batch{}

	flush := func() {
		if len(current.Blocks) > 0 {
			batches = append(batches, current)
			current = Batch{}
		}
	}

	for _, b := range blocks {
		for _, piece := range fitBlock(b, limits.MaxBlockBytes, &stats) {
			size := piece.Size()
			if len(current.Blocks) >= limits.MaxBlocks || current.Bytes+size > limits.MaxBatchBytes {
				flush()
			}
			current.Blocks = append(current.Blocks, piece)
			current.Bytes += size
			stats.Blocks++

			// Defensive invariant: greedy packing must never overfill, but a
			// batch past the count ceiling is corrected by popping the tail.
			if len(current.Blocks) > limits.MaxBlocks {
				last := current.Blocks[len(current.Blocks)-1]
				current.Blocks = current.Blocks[:len(current.Blocks)-1]
				current.Bytes -= size
				flush()
				current.Blocks = append(current.Blocks, last)
				current.Bytes = size
			}
		}
	}
	flush()
	return batches, stats
}

// PackRaw repairs externally supplied raw blocks at the boundary, then packs
// them. Content is never silently dropped: malformed blocks come back as
// repaired blocks or marked fallback paragraphs.
func PackRaw(raws []map[string]any, limits Limits) ([]Batch, Stats) {
	blocks := make([]block.Block, 0, len(raws))
	var repaired, replaced int
	for _, raw := range raws {
		b, outcome := block.Repair(raw)
		switch outcome {
		case block.OutcomeRepaired:
			repaired++
		case block.OutcomeReplaced:
			replaced++
		}
		blocks = append(blocks, b)
	}
	batches, stats := Pack(blocks, limits)
	stats.Repaired += repaired
	stats.Replaced += replaced
	return batches, stats
}

// fitBlock returns b unchanged when under the per-block ceiling, otherwise
// re-chunks it into several sub-limit blocks. A chunk that still cannot fit
// (structured kinds such as table rows) becomes a fallback notice for that
// chunk only.
func fitBlock(b block.Block, maxBytes int, stats *Stats) []block.Block {
	if b.Size() <= maxBytes {
		return []block.Block{b}
	}

	pieces, ok := splitBlock(b, maxBytes)
	if !ok {
		stats.Fallbacks++
		return []block.Block{block.Notice("[content lost: block exceeded the size limit and could not be split]")}
	}
	stats.Split++

	out := make([]block.Block, 0, len(pieces))
	for _, p := range pieces {
		if p.Size() > maxBytes {
			stats.Fallbacks++
			out = append(out, block.Notice("[content lost: oversized chunk]"))
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitBlock distributes a text-bearing block's spans over several blocks of
// the same kind. Non-text kinds report ok=false.
func splitBlock(b block.Block, maxBytes int) ([]block.Block, bool) {
	var spans []block.RichText
	rebuild := func(group []block.RichText) block.Block { return block.Paragraph(group) }

	switch p := b.Payload().(type) {
	case block.TextPayload:
		spans = p.RichText
		typ := b.Type()
		rebuild = func(group []block.RichText) block.Block {
			switch typ {
			case block.TypeHeading1:
				return block.Heading(1, group)
			case block.TypeHeading2:
				return block.Heading(2, group)
			case block.TypeHeading3:
				return block.Heading(3, group)
			case block.TypeBulleted:
				return block.Bulleted(group)
			case block.TypeNumbered:
				return block.Numbered(group)
			case block.TypeQuote:
				return block.Quote(group)
			default:
				return block.Paragraph(group)
			}
		}
	case block.CodePayload:
		spans = p.RichText
		lang := p.Language
		rebuild = func(group []block.RichText) block.Block { return block.Code(lang, group) }
	case block.ToDoPayload:
		spans = p.RichText
		checked := p.Checked
		rebuild = func(group []block.RichText) block.Block { return block.ToDo(group, checked) }
	default:
		return nil, false
	}

	var out []block.Block
	var group []block.RichText
	for _, s := range spans {
		group = append(group, s)
		if rebuild(group).Size() > maxBytes && len(group) > 1 {
			out = append(out, rebuild(group[:len(group)-1]))
			group = []block.RichText{s}
		}
	}
	if len(group) > 0 {
		out = append(out, rebuild(group))
	}
	return out, true
}
