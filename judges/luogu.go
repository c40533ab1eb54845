package judges

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"companion/dom"
	"companion/task"
	"companion/units"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

var (
	luoguMain    = dom.MustCompile(".main-container")
	luoguTitle   = dom.MustCompile("h1")
	luoguTime    = dom.MustCompile(".stat > .field:nth-child(3) > .value")
	luoguMemory  = dom.MustCompile(".stat > .field:nth-child(4) > .value")
	luoguSamples = dom.MustCompile(".io-sample")
	luoguBlock   = dom.MustCompile("pre")
	luoguContext = dom.MustCompile("#lentille-context")
	luoguScript  = dom.MustCompile("script")

	luoguPidRe       = regexp.MustCompile(`^[A-Za-z]\d+`)
	luoguInjectionRe = regexp.MustCompile(`window\._feInjection\s*=\s*JSON\.parse\(decodeURIComponent\("([^"]*)"\)\)`)
)

// Luogu parses problem pages from luogu.com.cn. The judge serves three
// layouts for the same page: a server-rendered statement, a page carrying the
// problem as JSON in #lentille-context, and the older frontend that injects
// URI-encoded JSON through window._feInjection.
type Luogu struct{}

// NewLuogu creates the Luogu parser.
func NewLuogu() *Luogu {
	return &Luogu{}
}

// Name returns the judge name used as the task group.
func (l *Luogu) Name() string {
	return "Luogu"
}

// MatchPatterns returns the problem page URLs this parser accepts.
func (l *Luogu) MatchPatterns() []string {
	return []string{"https://www.luogu.com.cn/problem/*"}
}

// Parse extracts the task from whichever layout the page uses.
func (l *Luogu) Parse(ctx context.Context, url, rawHTML string) (*task.Task, error) {
	doc, b, err := begin(ctx, l.Name(), url, rawHTML)
	if err != nil {
		return nil, err
	}
	root := doc.Selection

	switch {
	case dom.Has(root, luoguMain):
		err = l.parseFromPage(b, root)
	case dom.Has(root, luoguContext):
		err = l.parseFromJSON(b, dom.Text(luoguContext.Find(root).First()), "data")
	default:
		payload, ok := findInjection(root)
		if !ok {
			return nil, dom.Unrecognized("no statement, #lentille-context or _feInjection script")
		}
		err = l.parseFromJSON(b, payload, "currentData")
	}
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func (l *Luogu) parseFromPage(b *task.Builder, root *goquery.Selection) error {
	title, err := dom.RequireText(root, "name", luoguTitle)
	if err != nil {
		return err
	}
	title = strings.Join(strings.Fields(title), " ")
	pid := luoguPidRe.FindString(title)
	if pid == "" {
		return dom.Unparseable("name", title, errors.New("no problem id"))
	}
	// Keep the title after the id so this layout names tasks the same way
	// as the JSON layouts ("P1001 A+B Problem").
	b.SetName(strings.TrimSpace(pid + " " + strings.TrimSpace(title[len(pid):])))

	timeText, err := dom.RequireText(root, "time limit", luoguTime)
	if err != nil {
		return err
	}
	ms, err := units.ParseTime(timeText)
	if err != nil {
		return dom.Unparseable("time limit", timeText, err)
	}
	b.SetTimeLimit(ms)

	memoryText, err := dom.RequireText(root, "memory limit", luoguMemory)
	if err != nil {
		return err
	}
	mb, err := units.ParseMemory(memoryText)
	if err != nil {
		return dom.Unparseable("memory limit", memoryText, err)
	}
	b.SetMemoryLimit(mb)

	return pairContainers(b, luoguSamples.Find(root), luoguBlock)
}

// parseFromJSON reads the problem object found under base. Time limits are in
// milliseconds and memory limits in kilobytes, one entry per subtask; the
// largest of each binds.
func (l *Luogu) parseFromJSON(b *task.Builder, payload, base string) error {
	if !gjson.Valid(payload) {
		return &dom.MalformedInputError{What: "json", Err: errors.New("invalid problem data")}
	}
	data := gjson.Parse(payload).Get(base)
	problem := data.Get("problem")
	if !problem.IsObject() {
		return &dom.ExtractionError{Field: "problem", Reason: "no " + base + ".problem object"}
	}

	title := problem.Get("title")
	if !title.Exists() {
		return &dom.ExtractionError{Field: "name", Reason: "no title in problem data"}
	}
	b.SetName(strings.TrimSpace(problem.Get("pid").String() + " " + title.String()))

	times, err := jsonNumbers(problem, "time limit", "limits.time")
	if err != nil {
		return err
	}
	maxTime, err := units.Max(times)
	if err != nil {
		return dom.Unparseable("time limit", problem.Get("limits.time").Raw, err)
	}
	b.SetTimeLimit(maxTime)

	memories, err := jsonNumbers(problem, "memory limit", "limits.memory", "memory")
	if err != nil {
		return err
	}
	maxMemory, err := units.Max(memories)
	if err != nil {
		return dom.Unparseable("memory limit", problem.Get("limits.memory").Raw, err)
	}
	mb, err := units.MemoryToMB(maxMemory, "KB")
	if err != nil {
		return dom.Unparseable("memory limit", "KB", err)
	}
	b.SetMemoryLimit(mb)

	samples := problem.Get("samples")
	if !samples.Exists() {
		samples = data.Get("samples")
	}
	for _, s := range samples.Array() {
		pair := s.Array()
		if len(pair) < 2 {
			return &dom.ExtractionError{Field: "tests", Reason: "sample is not an [input, output] pair: " + s.Raw}
		}
		b.AddTest(pair[0].String(), pair[1].String())
	}
	return nil
}

// jsonNumbers returns the numbers in the first of paths holding a non-empty
// array under obj.
func jsonNumbers(obj gjson.Result, field string, paths ...string) ([]float64, error) {
	for _, p := range paths {
		v := obj.Get(p)
		if !v.IsArray() || len(v.Array()) == 0 {
			continue
		}
		var out []float64
		for _, n := range v.Array() {
			if n.Type != gjson.Number {
				return nil, dom.Unparseable(field, v.Raw, errors.New("non-numeric entry"))
			}
			out = append(out, n.Float())
		}
		return out, nil
	}
	return nil, &dom.ExtractionError{Field: field, Reason: "no values at " + strings.Join(paths, " or ")}
}

func findInjection(root *goquery.Selection) (string, bool) {
	var payload string
	var found bool
	luoguScript.Find(root).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := luoguInjectionRe.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		decoded, err := url.PathUnescape(m[1])
		if err != nil {
			return true
		}
		payload, found = decoded, true
		return false
	})
	return payload, found
}
