// Package judges implements one task parser per supported judge.
//
// Each parser probes the page for the layout it is looking at, extracts the
// task with the routine for that layout and lets a task.Builder validate the
// result. Parsers hold no per-call state.
package judges

import (
	"context"
	"strings"
	"sync"

	"companion/dom"
	"companion/sites"
	"companion/task"

	"github.com/PuerkitoBio/goquery"
)

// All returns every parser in registration order.
func All() []sites.Parser {
	return []sites.Parser{
		NewAcWing(),
		NewAtCoder(),
		NewCSES(),
		NewCodeforces(),
		NewLuogu(),
	}
}

// Enabled returns the parsers whose names are not listed in disabled.
// Names compare case-insensitively.
func Enabled(disabled []string) []sites.Parser {
	skip := make(map[string]bool, len(disabled))
	for _, d := range disabled {
		skip[strings.ToLower(strings.TrimSpace(d))] = true
	}
	var out []sites.Parser
	for _, p := range All() {
		if !skip[strings.ToLower(p.Name())] {
			out = append(out, p)
		}
	}
	return out
}

var defaultRegistry = sync.OnceValue(func() *sites.Registry {
	r, err := sites.NewRegistry(All())
	if err != nil {
		panic(err)
	}
	return r
})

// Registry returns the shared registry of every judge.
func Registry() *sites.Registry {
	return defaultRegistry()
}

// begin performs the steps shared by every parse call.
func begin(ctx context.Context, judge, url, rawHTML string) (*goquery.Document, *task.Builder, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	doc, err := dom.Parse(rawHTML)
	if err != nil {
		return nil, nil, err
	}
	return doc, task.NewBuilder(judge).SetURL(url), nil
}

// pairFlat adds blocks as input/output pairs: even indices are inputs, the
// following odd index is the output. A trailing unpaired block is ignored.
func pairFlat(b *task.Builder, blocks []string) {
	for i := 0; i+1 < len(blocks); i += 2 {
		b.AddTest(blocks[i], blocks[i+1])
	}
}

// pairContainers adds one test per container, taking the first block inside
// it as input and the second as output.
func pairContainers(b *task.Builder, containers *goquery.Selection, block dom.Selector) error {
	var err error
	containers.EachWithBreak(func(i int, c *goquery.Selection) bool {
		blocks := block.Find(c)
		if blocks.Length() < 2 {
			err = &dom.ExtractionError{
				Field:  "tests",
				Reason: "sample container without input and output " + block.String(),
			}
			return false
		}
		b.AddTest(blocks.Eq(0).Text(), blocks.Eq(1).Text())
		return true
	})
	return err
}
