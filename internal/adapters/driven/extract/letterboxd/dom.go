package letterboxd

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// matcher selects element nodes.
type matcher func(*html.Node) bool

// el matches an element by tag and classes. An empty tag matches any element.
func el(tag atom.Atom, classes ...string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if tag != 0 && n.DataAtom != tag {
			return false
		}
		for _, c := range classes {
			if !hasClass(n, c) {
				return false
			}
		}
		return true
	}
}

func byID(id string) matcher {
	return func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return n.Type == html.ElementNode && ok && v == id
	}
}

// findAll returns every descendant of root matching m, in document order.
func findAll(root *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// find returns the first descendant of root matching m, or nil.
func find(root *html.Node, m matcher) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if n := find(c, m); n != nil {
			return n
		}
	}
	return nil
}

// path follows a chain of matchers, each applied to the descendants of the
// previous match.
func path(root *html.Node, ms ...matcher) *html.Node {
	n := root
	for _, m := range ms {
		if n = find(n, m); n == nil {
			return nil
		}
	}
	return n
}

// childrenOf returns the direct element children of every node in parents
// that match m.
func childrenOf(parents []*html.Node, m matcher) []*html.Node {
	var out []*html.Node
	for _, p := range parents {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// classWithPrefix returns the suffix of the first class starting with prefix.
func classWithPrefix(n *html.Node, prefix string) (string, bool) {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if rest, ok := strings.CutPrefix(c, prefix); ok {
			return rest, true
		}
	}
	return "", false
}

// text returns the whitespace-collapsed text content of n.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
