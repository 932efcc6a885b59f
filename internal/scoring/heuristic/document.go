package heuristic

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// callToAction is an action-oriented element found in the markup.
type callToAction struct {
	label       string
	wordsBefore int
	imperative  bool
}

// document holds every signal the rules need, computed in one DOM walk.
type document struct {
	title               string
	headline            string
	headlineWordsBefore int
	headings            int

	text        string
	words       int
	sentences   int
	markupBytes int
	textBytes   int

	ctas          []callToAction
	links         int
	brokenLinks   int
	secureLinks   int
	policyLinks   int
	contactLinks  int
	hasAddress    bool
	testimonials  int
	imagesWithAlt int
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

var imperativeVerbs = map[string]struct{}{
	"get": {}, "start": {}, "try": {}, "sign": {}, "join": {}, "buy": {}, "book": {},
	"download": {}, "subscribe": {}, "register": {}, "request": {}, "claim": {},
	"contact": {}, "schedule": {}, "shop": {}, "order": {}, "learn": {}, "discover": {},
	"create": {}, "build": {}, "explore": {}, "talk": {}, "call": {}, "see": {},
	"watch": {}, "reserve": {}, "apply": {}, "upgrade": {}, "save": {}, "grab": {},
	"unlock": {}, "begin": {}, "chat": {}, "compare": {}, "install": {}, "add": {},
}

func (d *document) empty() bool {
	return d.words == 0
}

func parseDocument(raw string) *document {
	doc := &document{markupBytes: len(strings.TrimSpace(raw))}
	if doc.markupBytes == 0 {
		return doc
	}

	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return doc
	}

	var text strings.Builder
	walker := &walker{doc: doc, text: &text}
	walker.visit(root)

	doc.text = text.String()
	doc.textBytes = len(doc.text)
	doc.sentences = countSentences(doc.text)
	return doc
}

type walker struct {
	doc  *document
	text *strings.Builder
}

func (w *walker) visit(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.appendText(n.Data)
		return
	case html.ElementNode:
		if skipContent(n.DataAtom) {
			if n.DataAtom == atom.Title && w.doc.title == "" {
				w.doc.title = textOf(n)
			}
			return
		}
		w.inspect(n)
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		w.visit(child)
	}
}

func (w *walker) appendText(data string) {
	fields := strings.Fields(data)
	if len(fields) == 0 {
		return
	}
	if w.text.Len() > 0 {
		w.text.WriteByte(' ')
	}
	w.text.WriteString(strings.Join(fields, " "))
	w.doc.words += len(fields)
}

func (w *walker) inspect(n *html.Node) {
	d := w.doc

	switch n.DataAtom {
	case atom.H1:
		d.headings++
		if d.headline == "" {
			d.headline = textOf(n)
			d.headlineWordsBefore = d.words
		}
	case atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		d.headings++
	case atom.A:
		w.inspectLink(n)
	case atom.Button:
		w.addCTA(textOf(n), true)
	case atom.Input:
		kind := strings.ToLower(attr(n, "type"))
		if kind == "submit" || kind == "button" {
			w.addCTA(attr(n, "value"), true)
		}
	case atom.Blockquote:
		d.testimonials++
	case atom.Address:
		d.hasAddress = true
	case atom.Img:
		if strings.TrimSpace(attr(n, "alt")) != "" {
			d.imagesWithAlt++
		}
	}

	if n.DataAtom != atom.Blockquote && looksLikeTestimonial(n) {
		d.testimonials++
	}
}

func (w *walker) inspectLink(n *html.Node) {
	d := w.doc
	d.links++

	href, hasHref := attrOK(n, "href")
	href = strings.ToLower(strings.TrimSpace(href))
	label := textOf(n)
	lowerLabel := strings.ToLower(label)

	switch {
	case !hasHref || isBrokenHref(href):
		d.brokenLinks++
	case strings.HasPrefix(href, "https://"):
		d.secureLinks++
	}
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") || strings.Contains(lowerLabel, "contact") {
		d.contactLinks++
	}
	if strings.Contains(lowerLabel, "privacy") || strings.Contains(lowerLabel, "terms") {
		d.policyLinks++
	}

	styled := strings.EqualFold(attr(n, "role"), "button") || hasClassToken(n, "btn", "button", "cta")
	if styled || isImperative(label) {
		w.addCTA(label, styled)
	}
}

func (w *walker) addCTA(label string, force bool) {
	label = strings.TrimSpace(label)
	imperative := isImperative(label)
	if label == "" || (!force && !imperative) {
		return
	}
	w.doc.ctas = append(w.doc.ctas, callToAction{
		label:       label,
		wordsBefore: w.doc.words,
		imperative:  imperative,
	})
}

func skipContent(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Title:
		return true
	}
	return false
}

func isBrokenHref(href string) bool {
	switch {
	case href == "":
		return true
	case strings.HasPrefix(href, "javascript:"):
		return true
	case strings.Contains(href, "localhost"), strings.Contains(href, "127.0.0.1"):
		return true
	case strings.Contains(href, "undefined"), strings.HasSuffix(href, "/null"):
		return true
	}
	return false
}

func isImperative(label string) bool {
	fields := strings.Fields(strings.ToLower(label))
	if len(fields) == 0 || len(fields) > 6 {
		return false
	}
	first := strings.Trim(fields[0], ".,!?:;\"'»›→")
	_, ok := imperativeVerbs[first]
	return ok
}

func looksLikeTestimonial(n *html.Node) bool {
	marker := strings.ToLower(attr(n, "class") + " " + attr(n, "id"))
	return strings.Contains(marker, "testimonial") || strings.Contains(marker, "review")
}

func hasClassToken(n *html.Node, tokens ...string) bool {
	for _, class := range strings.Fields(strings.ToLower(attr(n, "class"))) {
		for _, token := range tokens {
			if class == token || strings.HasPrefix(class, token+"-") || strings.HasSuffix(class, "-"+token) {
				return true
			}
		}
	}
	return false
}

func countSentences(text string) int {
	count := 0
	for _, part := range sentenceBoundary.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

func textOf(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			parts = append(parts, strings.Fields(node.Data)...)
			return
		}
		if node.Type == html.ElementNode && (node.DataAtom == atom.Script || node.DataAtom == atom.Style) {
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(parts, " ")
}

func attr(n *html.Node, key string) string {
	value, _ := attrOK(n, key)
	return value
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
