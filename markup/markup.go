// Package markup extracts translatable paragraphs from XHTML content
// documents and writes translations back into them.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Selector picks the paragraph-level nodes whose text gets translated.
const Selector = "p"

// ExtractionError reports markup that cannot be parsed.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "parse markup: " + e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }

// Handle addresses one selected node of a Document.
type Handle int

// Unit is one translatable paragraph.
type Unit struct {
	Handle Handle
	// Text is the paragraph text without surrounding whitespace.
	Text string
}

// Document is a parsed content document.
type Document struct {
	prolog []byte
	doc    *goquery.Document
	nodes  *goquery.Selection
}

// Parse parses raw XHTML. Markup that is not well-formed yields an
// *ExtractionError.
func Parse(raw []byte) (*Document, error) {
	if err := wellFormed(raw); err != nil {
		return nil, &ExtractionError{Err: err}
	}

	prolog, body := splitProlog(raw)
	return load(prolog, expandEmpty(body))
}

// ParseHTML parses raw as plain HTML, the way a browser would: unclosed
// void elements such as <br> and <meta> are fine and nothing is rejected
// for being malformed.
func ParseHTML(raw []byte) (*Document, error) {
	prolog, body := splitProlog(raw)
	return load(prolog, body)
}

// ParseMedia picks Parse or ParseHTML from a manifest media type.
func ParseMedia(raw []byte, mediaType string) (*Document, error) {
	if strings.EqualFold(strings.TrimSpace(mediaType), "text/html") {
		return ParseHTML(raw)
	}
	return Parse(raw)
}

func load(prolog, body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	return &Document{prolog: prolog, doc: doc, nodes: doc.Find(Selector)}, nil
}

// Units returns the translatable paragraphs in document order. Paragraphs
// that are empty or hold only digits are left out.
func (d *Document) Units() []Unit {
	var units []Unit
	d.nodes.Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !Translatable(text) {
			return
		}
		units = append(units, Unit{Handle: Handle(i), Text: text})
	})
	return units
}

// SetText replaces the content of the node at h with text, keeping the
// whitespace that surrounded the node's original text.
func (d *Document) SetText(h Handle, text string) error {
	if int(h) < 0 || int(h) >= d.nodes.Length() {
		return fmt.Errorf("handle %d out of range [0,%d)", h, d.nodes.Length())
	}
	s := d.nodes.Eq(int(h))
	old := s.Text()
	lead := old[:len(old)-len(strings.TrimLeftFunc(old, unicode.IsSpace))]
	trail := old[len(strings.TrimRightFunc(old, unicode.IsSpace)):]
	if strings.TrimSpace(old) == "" {
		trail = ""
	}
	s.SetText(lead + text + trail)
	return nil
}

// Apply writes outcome[i] into units[i]. A unit whose outcome equals its
// original text is left as it was, inline markup included.
func (d *Document) Apply(units []Unit, outcome []string) error {
	if len(units) != len(outcome) {
		return fmt.Errorf("apply: %d units, %d results", len(units), len(outcome))
	}
	for i, u := range units {
		if outcome[i] == u.Text {
			continue
		}
		if err := d.SetText(u.Handle, outcome[i]); err != nil {
			return err
		}
	}
	return nil
}

// Render serializes the document, restoring its XML declaration.
func (d *Document) Render() ([]byte, error) {
	html, err := d.doc.Html()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(d.prolog)+len(html))
	out = append(out, d.prolog...)
	return append(out, html...), nil
}

// Translatable reports whether trimmed paragraph text is worth sending to a
// translator: it must be non-empty and not made of digits only.
func Translatable(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func wellFormed(raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	root := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			root = true
		}
	}
	if !root {
		return errors.New("no root element")
	}
	return nil
}

var prologRE = regexp.MustCompile(`^\x{FEFF}?\s*<\?xml[^>]*\?>[ \t]*\r?\n?`)

func splitProlog(raw []byte) (prolog, body []byte) {
	loc := prologRE.FindIndex(raw)
	if loc == nil {
		return nil, raw
	}
	return raw[:loc[1]], raw[loc[1]:]
}

var emptyTagRE = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_.-]*)(\s[^<>]*?)?\s*/>`)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// expandEmpty turns XML empty-element tags such as <a id="p5"/> into start
// and end tag pairs; an HTML parser would otherwise read them as start tags.
func expandEmpty(body []byte) []byte {
	return emptyTagRE.ReplaceAllFunc(body, func(m []byte) []byte {
		sub := emptyTagRE.FindSubmatch(m)
		name := string(sub[1])
		if voidElements[strings.ToLower(name)] {
			return m
		}
		var b bytes.Buffer
		b.WriteByte('<')
		b.Write(sub[1])
		b.Write(sub[2])
		b.WriteString("></")
		b.Write(sub[1])
		b.WriteByte('>')
		return b.Bytes()
	})
}
