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
	cfTitle   = dom.MustCompile(".problem-statement .header .title")
	cfTime    = dom.MustCompile(".problem-statement .header .time-limit")
	cfMemory  = dom.MustCompile(".problem-statement .header .memory-limit")
	cfBlocks  = dom.MustCompile(".sample-test .input pre, .sample-test .output pre")
	cfLines   = dom.MustCompile(".test-example-line")
	cfContest = dom.MustCompile(".rtable .left a")

	cfTimeRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(seconds?|ms)`)
	cfMemoryRe = regexp.MustCompile(`(\d+)\s*(megabytes?|kilobytes?|gigabytes?)`)
)

// Codeforces parses problem pages from codeforces.com, including gym and
// problemset views of the same statement.
type Codeforces struct{}

// NewCodeforces creates the Codeforces parser.
func NewCodeforces() *Codeforces {
	return &Codeforces{}
}

// Name returns the judge name used as the task group.
func (c *Codeforces) Name() string {
	return "Codeforces"
}

// MatchPatterns returns the problem page URLs this parser accepts.
func (c *Codeforces) MatchPatterns() []string {
	return []string{
		"https://codeforces.com/contest/*/problem/*",
		"https://codeforces.com/problemset/problem/*/*",
		"https://codeforces.com/gym/*/problem/*",
		"https://codeforces.com/problemset/gymProblem/*/*",
	}
}

// Parse extracts the task. The statement title keeps its problem letter,
// e.g. "A. Watermelon".
func (c *Codeforces) Parse(ctx context.Context, url, rawHTML string) (*task.Task, error) {
	doc, b, err := begin(ctx, c.Name(), url, rawHTML)
	if err != nil {
		return nil, err
	}
	root := doc.Selection

	title, err := dom.RequireText(root, "name", cfTitle)
	if err != nil {
		return nil, err
	}
	b.SetName(title)
	b.SetCategory(dom.OptionalText(root, cfContest))

	timeText, err := dom.RequireText(root, "time limit", cfTime)
	if err != nil {
		return nil, err
	}
	m := cfTimeRe.FindStringSubmatch(timeText)
	if m == nil {
		return nil, dom.Unparseable("time limit", timeText, errors.New("no duration"))
	}
	ms, err := cfQuantity(m, units.TimeToMs)
	if err != nil {
		return nil, dom.Unparseable("time limit", timeText, err)
	}
	b.SetTimeLimit(ms)

	memoryText, err := dom.RequireText(root, "memory limit", cfMemory)
	if err != nil {
		return nil, err
	}
	m = cfMemoryRe.FindStringSubmatch(memoryText)
	if m == nil {
		return nil, dom.Unparseable("memory limit", memoryText, errors.New("no size"))
	}
	mb, err := cfQuantity(m, units.MemoryToMB)
	if err != nil {
		return nil, dom.Unparseable("memory limit", memoryText, err)
	}
	b.SetMemoryLimit(mb)

	var blocks []string
	cfBlocks.Find(root).Each(func(_ int, pre *goquery.Selection) {
		blocks = append(blocks, cfSampleText(pre))
	})
	pairFlat(b, blocks)

	return b.Build()
}

func cfQuantity(m []string, convert func(float64, string) (float64, error)) (float64, error) {
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	return convert(v, m[2])
}

// cfSampleText reads a sample block. Newer statements split the block into
// one .test-example-line element per line; older ones use <br>.
func cfSampleText(pre *goquery.Selection) string {
	lines := cfLines.Find(pre)
	if lines.Length() == 0 {
		return dom.PreText(pre)
	}
	var out []string
	lines.Each(func(_ int, l *goquery.Selection) {
		out = append(out, l.Text())
	})
	return strings.Join(out, "\n")
}
