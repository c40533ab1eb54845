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
)

var (
	acwingTitle  = dom.MustCompile(".problem-content-title")
	acwingBlocks = dom.MustCompile(".martor-preview pre")
	acwingLimits = dom.MustCompile(".table.table-striped")

	acwingTimeRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)s`)
	acwingMemoryRe = regexp.MustCompile(`(\d+(?:\.\d+)?)MB`)
)

// AcWing parses problem pages from acwing.com.
type AcWing struct{}

// NewAcWing creates the AcWing parser.
func NewAcWing() *AcWing {
	return &AcWing{}
}

// Name returns the judge name used as the task group.
func (a *AcWing) Name() string {
	return "AcWing"
}

// MatchPatterns returns the problem page URLs this parser accepts.
func (a *AcWing) MatchPatterns() []string {
	return []string{"https://www.acwing.com/problem/content/*"}
}

// Parse extracts the task. Titles look like "3. Sum Problem"; the ordinal
// before the last ". " is dropped.
func (a *AcWing) Parse(ctx context.Context, url, rawHTML string) (*task.Task, error) {
	doc, b, err := begin(ctx, a.Name(), url, rawHTML)
	if err != nil {
		return nil, err
	}
	root := doc.Selection

	title, err := dom.RequireText(root, "name", acwingTitle)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(title, ". ")
	b.SetName(parts[len(parts)-1])

	pairFlat(b, dom.Texts(root, acwingBlocks))

	limits, err := dom.RequireText(root, "limits", acwingLimits)
	if err != nil {
		return nil, err
	}
	seconds, err := acwingNumber(acwingTimeRe, "time limit", limits)
	if err != nil {
		return nil, err
	}
	ms, err := units.TimeToMs(seconds, "s")
	if err != nil {
		return nil, dom.Unparseable("time limit", limits, err)
	}
	b.SetTimeLimit(ms)

	mb, err := acwingNumber(acwingMemoryRe, "memory limit", limits)
	if err != nil {
		return nil, err
	}
	b.SetMemoryLimit(mb)

	return b.Build()
}

func acwingNumber(re *regexp.Regexp, field, text string) (float64, error) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, dom.Unparseable(field, text, errors.New("pattern "+re.String()+" not found"))
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, dom.Unparseable(field, m[1], err)
	}
	return n, nil
}
