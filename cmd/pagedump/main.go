// Command pagedump fetches a judge page, saves it for use with -file, and
// prints its element outline. Handy when a judge changes its layout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"companion/dom"
	"companion/fetcher"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

func main() {
	render := flag.Bool("render", false, "load the page in headless Chrome")
	out := flag.String("o", "", "save the HTML to this file")
	depth := flag.Int("depth", 4, "outline depth below <body>")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pagedump [-render] [-o page.html] [-depth n] <url>")
		os.Exit(2)
	}
	url := flag.Arg(0)

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	f := fetcher.New(fetcher.Options{AlwaysRender: *render}, logger)
	result, err := f.Smart(context.Background(), url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if *out != "" {
		if err := os.WriteFile(*out, []byte(result.HTML), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}

	doc, err := dom.Parse(result.HTML)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Parse error:", err)
		os.Exit(1)
	}

	body := findElement(doc.Nodes[0], "body")
	if body == nil {
		fmt.Println("No body found!")
		return
	}
	outline(os.Stdout, body, 0, *depth)
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// outline writes one line per element below n with its id and class, plus
// a short preview of any direct text.
func outline(w io.Writer, n *html.Node, depth, maxDepth int) {
	if depth > maxDepth {
		return
	}
	indent := strings.Repeat("  ", depth)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if c.Data == "script" || c.Data == "style" {
				continue
			}
			attrs := ""
			for _, a := range c.Attr {
				if a.Key == "id" || a.Key == "class" {
					attrs += fmt.Sprintf(" %s=%q", a.Key, a.Val)
				}
			}
			fmt.Fprintf(w, "%s<%s%s>\n", indent, c.Data, attrs)
			outline(w, c, depth+1, maxDepth)
		case html.TextNode:
			text := strings.Join(strings.Fields(c.Data), " ")
			if text == "" {
				continue
			}
			if r := []rune(text); len(r) > 50 {
				text = string(r[:50]) + "..."
			}
			fmt.Fprintf(w, "%s%q\n", indent, text)
		}
	}
}
