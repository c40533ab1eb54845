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
	atTitle      = dom.MustCompile("span.h2")
	atContest    = dom.MustCompile(".contest-title")
	atParagraphs = dom.MustCompile("p")
	atStatement  = dom.MustCompile("#task-statement")
	atEnglish    = dom.MustCompile("#task-statement .lang-en")
	atHeadings   = dom.MustCompile("h3")

	// Japanese-only pages label the limits 実行時間制限 and メモリ制限.
	atTimeRe   = regexp.MustCompile(`(?:Time Limit|実行時間制限)\s*[:：]\s*(\d+(?:\.\d+)?)\s*(sec|ms)`)
	atMemoryRe = regexp.MustCompile(`(?:Memory Limit|メモリ制限)\s*[:：]\s*(\d+(?:\.\d+)?)\s*(KiB|MiB|GiB|KB|MB|GB)`)
)

// AtCoder parses task pages from atcoder.jp.
type AtCoder struct{}

// NewAtCoder creates the AtCoder parser.
func NewAtCoder() *AtCoder {
	return &AtCoder{}
}

// Name returns the judge name used as the task group.
func (a *AtCoder) Name() string {
	return "AtCoder"
}

// MatchPatterns returns the task page URLs this parser accepts.
func (a *AtCoder) MatchPatterns() []string {
	return []string{"https://atcoder.jp/contests/*/tasks/*"}
}

// Parse extracts the task. Titles look like "A - Welcome to AtCoder"; the
// task letter before the first " - " is dropped.
func (a *AtCoder) Parse(ctx context.Context, url, rawHTML string) (*task.Task, error) {
	doc, b, err := begin(ctx, a.Name(), url, rawHTML)
	if err != nil {
		return nil, err
	}
	root := doc.Selection

	titleSel, err := dom.Require(root, "name", atTitle)
	if err != nil {
		return nil, err
	}
	title := dom.OwnText(titleSel)
	_, name, ok := strings.Cut(title, " - ")
	if !ok {
		return nil, dom.Unparseable("name", title, errors.New("no task letter separator"))
	}
	b.SetName(name)
	b.SetCategory(dom.OptionalText(root, atContest))

	if err := a.parseLimits(b, root); err != nil {
		return nil, err
	}

	section := atEnglish.Find(root).First()
	if section.Length() == 0 {
		section, err = dom.Require(root, "tests", atStatement)
		if err != nil {
			return nil, err
		}
	}
	pairFlat(b, atSamples(section))

	return b.Build()
}

func (a *AtCoder) parseLimits(b *task.Builder, root *goquery.Selection) error {
	var text string
	atParagraphs.Find(root).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if t := p.Text(); atTimeRe.MatchString(t) {
			text = t
			return false
		}
		return true
	})
	if text == "" {
		return &dom.ExtractionError{Field: "limits", Reason: "no paragraph with a time limit"}
	}

	m := atTimeRe.FindStringSubmatch(text)
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return dom.Unparseable("time limit", text, err)
	}
	ms, err := units.TimeToMs(v, m[2])
	if err != nil {
		return dom.Unparseable("time limit", text, err)
	}
	b.SetTimeLimit(ms)

	m = atMemoryRe.FindStringSubmatch(text)
	if m == nil {
		return dom.Unparseable("memory limit", text, errors.New("no memory limit"))
	}
	v, err = strconv.ParseFloat(m[1], 64)
	if err != nil {
		return dom.Unparseable("memory limit", text, err)
	}
	mb, err := units.MemoryToMB(v, m[2])
	if err != nil {
		return dom.Unparseable("memory limit", text, err)
	}
	b.SetMemoryLimit(mb)
	return nil
}

// atSamples returns the sample blocks under section in page order. A sample
// block is the first <pre> after an h3 titled "Sample Input N" or
// "Sample Output N" (入力例/出力例 on Japanese-only statements).
func atSamples(section *goquery.Selection) []string {
	var blocks []string
	atHeadings.Find(section).Each(func(_ int, h *goquery.Selection) {
		heading := strings.TrimSpace(h.Text())
		if !isSampleHeading(heading) {
			return
		}
		pre := h.NextAllFiltered("pre").First()
		if pre.Length() == 0 {
			return
		}
		blocks = append(blocks, pre.Text())
	})
	return blocks
}

func isSampleHeading(s string) bool {
	for _, prefix := range []string{"Sample Input", "Sample Output", "入力例", "出力例"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
