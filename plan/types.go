// CLAUDE:SUMMARY Plan model: ordered request descriptors with declared produces/consumes placeholders.
// Package plan compiles parsed content into an ordered sequence of remote
// API operations.
//
// Requests may forward-reference resources created by earlier requests in
// the same plan through symbolic placeholders. Each request declares which
// placeholder it produces and which it consumes, so an unresolved reference
// is a plan validation failure, not a runtime surprise.
package plan

import (
	"fmt"
	"regexp"
)

// Placeholder names an ID that is only known after an earlier request in the
// same plan completes, e.g. "{rootId}" or "{dbId_2}".
type Placeholder string

// RootID is the placeholder for the root document created by the first
// request of every plan.
const RootID Placeholder = "{rootId}"

// DBID returns the placeholder for the n-th database created by a plan.
func DBID(n int) Placeholder {
	return Placeholder(fmt.Sprintf("{dbId_%d}", n))
}

// Kind classifies a request for pacing, retry, and failure policy.
type Kind string

const (
	KindCreatePage     Kind = "create_page"
	KindAppendChildren Kind = "append_children"
	KindCreateDatabase Kind = "create_database"
	KindPatchDatabase  Kind = "patch_database"
	KindCreateRow      Kind = "create_row"
	KindPatchPage      Kind = "patch_page"
)

// Request is one remote operation. Path and Body may embed placeholders; the
// compiler never invents values for them, resolution belongs to the
// execution engine.
type Request struct {
	Kind   Kind
	Method string
	Path   string
	Body   map[string]any

	// Produces is the placeholder this request's response ID resolves, empty
	// when the response ID is not referenced later.
	Produces Placeholder
	// Consumes lists every placeholder embedded in Path or Body. All of them
	// must be produced by earlier requests.
	Consumes []Placeholder

	// Note is the human-readable step for this request.
	Note string

	// FallbackNotice, on create_database requests, is appended to the root
	// document when the create fails unrecoverably: the table aborts with a
	// visible notice instead of failing the whole plan.
	FallbackNotice string
}

// Plan is an ordered list of requests plus the human-readable step list and
// advisory notes gathered during compilation.
type Plan struct {
	Requests []Request
	Steps    []string
	Notes    []string
}

var placeholderRE = regexp.MustCompile(`\{[A-Za-z0-9_]+\}`)

// Validate checks the placeholder dependency order: every placeholder a
// request references must be declared in Consumes and produced by an earlier
// request. Execution order is plan order, so this is the whole schedule.
func (p *Plan) Validate() error {
	produced := map[Placeholder]bool{}
	for i, req := range p.Requests {
		declared := map[Placeholder]bool{}
		for _, c := range req.Consumes {
			if !produced[c] {
				return fmt.Errorf("plan: request %d (%s %s) consumes %s before it is produced", i, req.Method, req.Path, c)
			}
			declared[c] = true
		}
		for _, ref := range referenced(req) {
			if !declared[ref] {
				return fmt.Errorf("plan: request %d (%s %s) references undeclared placeholder %s", i, req.Method, req.Path, ref)
			}
		}
		if req.Produces != "" {
			if produced[req.Produces] {
				return fmt.Errorf("plan: request %d produces %s twice", i, req.Produces)
			}
			produced[req.Produces] = true
		}
	}
	return nil
}

// referenced collects every placeholder embedded in a request's path or body.
func referenced(req Request) []Placeholder {
	var refs []Placeholder
	for _, m := range placeholderRE.FindAllString(req.Path, -1) {
		refs = append(refs, Placeholder(m))
	}
	refs = append(refs, bodyPlaceholders(req.Body)...)
	return refs
}

func bodyPlaceholders(v any) []Placeholder {
	var refs []Placeholder
	switch t := v.(type) {
	case Placeholder:
		refs = append(refs, t)
	case map[string]any:
		for _, el := range t {
			refs = append(refs, bodyPlaceholders(el)...)
		}
	case []any:
		for _, el := range t {
			refs = append(refs, bodyPlaceholders(el)...)
		}
	}
	return refs
}
