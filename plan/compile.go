// CLAUDE:SUMMARY Request compiler: root create first, ordered children flushes, table hoisting, finalize patch.
package plan

import (
	"fmt"
	"regexp"

	"github.com/hazyhaar/depeche/batch"
	"github.com/hazyhaar/depeche/block"
	"github.com/hazyhaar/depeche/report"
)

// fieldExistenceRE hoists a table whose preceding heading names a field
// existence comparison to the very top of the document. Case-insensitive and
// tolerant of the widespread "existance" misspelling; both are in the wild.
var fieldExistenceRE = regexp.MustCompile(`(?i)field\s+exist[ae]nce`)

// inProgressMark prefixes the root title until the final patch removes it.
const inProgressMark = "⏳ "

// Options tunes compilation.
type Options struct {
	Batch batch.Limits
	Build block.BuildOptions
	// Title overrides the root document title; default is the report's first
	// heading, falling back to "Report".
	Title string
}

// compiler assembles a Plan from parsed content.
type compiler struct {
	opts  Options
	plan  *Plan
	stats batch.Stats

	pending []block.Block
	dbCount int
}

// Compile turns a parsed document into an ordered plan of remote operations
// rooted under the destination container. The returned stats carry the
// batch/validation counters accumulated while compiling.
func Compile(doc *report.Document, destID string, opts Options) (*Plan, batch.Stats, error) {
	if destID == "" {
		return nil, batch.Stats{}, fmt.Errorf("plan: destination container ID is required")
	}

	c := &compiler{opts: opts, plan: &Plan{}}

	title := opts.Title
	if title == "" {
		title = doc.FirstHeading
	}
	if title == "" {
		title = "Report"
	}

	c.add(Request{
		Kind:   KindCreatePage,
		Method: "POST",
		Path:   "/v1/pages",
		Body: map[string]any{
			"parent": map[string]any{"type": "page_id", "page_id": destID},
			"properties": map[string]any{
				"title": map[string]any{"title": block.Spans(inProgressMark + title)},
			},
		},
		Produces: RootID,
		Note:     fmt.Sprintf("Create root document %q", title),
	})

	// Ordering override: tables under a "field existence" heading are emitted
	// before all other content, regardless of original position.
	hoisted, rest := partitionHoisted(doc.Items)
	for _, it := range hoisted {
		c.compileTable(it.Table)
	}

	for _, kv := range doc.Preface {
		c.pending = append(c.pending, block.Bulleted(block.Spans(kv.Key+": "+kv.Value)))
	}

	for _, it := range rest {
		if it.Kind == report.KindTable {
			// Flush accumulated children first so document order holds.
			c.flush()
			c.compileTable(it.Table)
			continue
		}
		c.pending = append(c.pending, block.FromItem(it, c.opts.Build)...)
	}
	c.flush()

	c.add(Request{
		Kind:   KindPatchPage,
		Method: "PATCH",
		Path:   "/v1/pages/" + string(RootID),
		Body: map[string]any{
			"properties": map[string]any{
				"title": map[string]any{"title": block.Spans(title)},
			},
		},
		Consumes: []Placeholder{RootID},
		Note:     "Finalize root document title",
	})

	for _, w := range doc.Warnings {
		c.plan.Notes = append(c.plan.Notes, w)
	}

	if err := c.plan.Validate(); err != nil {
		return nil, c.stats, err
	}
	return c.plan, c.stats, nil
}

// partitionHoisted splits out tables matching the field-existence override,
// preserving relative order on both sides.
func partitionHoisted(items []report.Item) (hoisted, rest []report.Item) {
	for _, it := range items {
		if it.Kind == report.KindTable && it.Table != nil && fieldExistenceRE.MatchString(it.Table.Title) {
			hoisted = append(hoisted, it)
			continue
		}
		rest = append(rest, it)
	}
	return hoisted, rest
}

func (c *compiler) add(req Request) {
	c.plan.Requests = append(c.plan.Requests, req)
	c.plan.Steps = append(c.plan.Steps, req.Note)
}

// flush packs pending children and emits one append request per batch.
func (c *compiler) flush() {
	if len(c.pending) == 0 {
		return
	}
	batches, stats := batch.Pack(c.pending, c.opts.Batch)
	c.stats.Blocks += stats.Blocks
	c.stats.Split += stats.Split
	c.stats.Fallbacks += stats.Fallbacks
	c.pending = nil

	for i, b := range batches {
		c.add(Request{
			Kind:     KindAppendChildren,
			Method:   "PATCH",
			Path:     "/v1/blocks/" + string(RootID) + "/children",
			Body:     map[string]any{"children": b.Blocks},
			Consumes: []Placeholder{RootID},
			Note:     fmt.Sprintf("Append %d content blocks (batch %d/%d)", len(b.Blocks), i+1, len(batches)),
		})
	}
}

// appendNotice emits a single-notice append request to the root document.
func (c *compiler) appendNotice(text string) {
	c.add(Request{
		Kind:     KindAppendChildren,
		Method:   "PATCH",
		Path:     "/v1/blocks/" + string(RootID) + "/children",
		Body:     map[string]any{"children": []block.Block{block.Notice(text)}},
		Consumes: []Placeholder{RootID},
		Note:     "Append notice: " + text,
	})
}
