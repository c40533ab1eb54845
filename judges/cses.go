package judges

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"companion/dom"
	"companion/task"
	"companion/units"

	"github.com/PuerkitoBio/goquery"
)

var (
	csesTitle       = dom.MustCompile(".title-block h1")
	csesConstraints = dom.MustCompile(".task-constraints")
	csesBlocks      = dom.MustCompile(".content .md pre")

	csesTimeRe   = regexp.MustCompile(`Time limit:\s*(\d+(?:\.\d+)?)\s*s`)
	csesMemoryRe = regexp.MustCompile(`Memory limit:\s*(\d+)\s*MB`)
)

// CSES parses task pages from the CSES problem set.
type CSES struct{}

// NewCSES creates the CSES parser.
func NewCSES() *CSES {
	return &CSES{}
}

// Name returns the judge name used as the task group.
func (c *CSES) Name() string {
	return "CSES"
}

// MatchPatterns returns the task page URLs this parser accepts.
func (c *CSES) MatchPatterns() []string {
	return []string{"https://cses.fi/problemset/task/*"}
}

func (c *CSES) Parse(ctx context.Context, url, rawHTML string) (*task.Task, error) {
	doc, b, err := begin(ctx, c.Name(), url, rawHTML)
	if err != nil {
		return nil, err
	}
	root := doc.Selection

	name, err := dom.RequireText(root, "name", csesTitle)
	if err != nil {
		return nil, err
	}
	b.SetName(name)

	constraints, err := dom.RequireText(root, "limits", csesConstraints)
	if err != nil {
		return nil, err
	}
	m := csesTimeRe.FindStringSubmatch(constraints)
	if m == nil {
		return nil, dom.Unparseable("time limit", constraints, errors.New("no time limit"))
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, dom.Unparseable("time limit", constraints, err)
	}
	ms, _ := units.TimeToMs(seconds, "s")
	b.SetTimeLimit(ms)

	m = csesMemoryRe.FindStringSubmatch(constraints)
	if m == nil {
		return nil, dom.Unparseable("memory limit", constraints, errors.New("no memory limit"))
	}
	mb, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, dom.Unparseable("memory limit", constraints, err)
	}
	b.SetMemoryLimit(mb)

	pairFlat(b, csesSamples(root))

	return b.Build()
}

// csesSamples returns the <pre> blocks introduced by an "Input:" or
// "Output:" paragraph. Other preformatted text in the statement is skipped.
func csesSamples(root *goquery.Selection) []string {
	var blocks []string
	csesBlocks.Find(root).Each(func(_ int, pre *goquery.Selection) {
		label := strings.TrimSpace(pre.Prev().Text())
		if label == "Input:" || label == "Output:" {
			blocks = append(blocks, pre.Text())
		}
	})
	return blocks
}
