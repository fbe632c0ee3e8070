// Package textdiff computes a character-level diff of two strings and renders
// it as a pair of annotated strings for side-by-side display.
package textdiff

import (
	"html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type Kind int

const (
	Same Kind = iota
	Insertion
	Deletion
)

func (k Kind) String() string {
	switch k {
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	default:
		return "same"
	}
}

// Span is one run of the edit script.
type Span struct {
	Kind Kind
	Text string
}

const (
	DeletionOpen  = `<em style="color: red">`
	InsertionOpen = `<em style="color: green">`
	MarkerClose   = `</em>`
)

// Ops returns the edit script turning old into new, one span per run of
// unchanged, inserted or deleted runes. The diff has no time limit so the
// result depends only on the inputs. When either input is not valid UTF-8
// the diff is taken byte by byte, so the spans still reproduce the inputs
// exactly.
func Ops(old, new string) []Span {
	if utf8.ValidString(old) && utf8.ValidString(new) {
		return spans(diffRunes(old, new), identity)
	}
	return spans(diffRunes(widen(old), widen(new)), narrow)
}

func diffRunes(old, new string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return dmp.DiffMain(old, new, false)
}

func spans(diffs []diffmatchpatch.Diff, text func(string) string) []Span {
	out := make([]Span, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		var kind Kind
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = Insertion
		case diffmatchpatch.DiffDelete:
			kind = Deletion
		default:
			kind = Same
		}
		out = append(out, Span{Kind: kind, Text: text(d.Text)})
	}
	return out
}

// widen maps every byte of s to the rune with the same value.
func widen(s string) string {
	runes := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		runes[i] = rune(s[i])
	}
	return string(runes)
}

// narrow reverses widen.
func narrow(s string) string {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		buf = append(buf, byte(r))
	}
	return string(buf)
}

// Diff returns old and new with deleted runs wrapped in the deletion marker
// and inserted runs wrapped in the insertion marker. Unchanged text is copied
// verbatim into both.
func Diff(old, new string) (annotatedOld, annotatedNew string) {
	return Annotate(Ops(old, new), identity)
}

// DiffHTML is Diff with every span HTML-escaped before it is wrapped, so the
// result is safe to embed in a page.
func DiffHTML(old, new string) (template.HTML, template.HTML) {
	o, n := Annotate(Ops(old, new), html.EscapeString)
	return template.HTML(o), template.HTML(n)
}

// Annotate renders an edit script, passing each span's text through escape.
func Annotate(spans []Span, escape func(string) string) (string, string) {
	var o, n strings.Builder
	for _, span := range spans {
		text := escape(span.Text)
		switch span.Kind {
		case Same:
			o.WriteString(text)
			n.WriteString(text)
		case Deletion:
			o.WriteString(DeletionOpen)
			o.WriteString(text)
			o.WriteString(MarkerClose)
		case Insertion:
			n.WriteString(InsertionOpen)
			n.WriteString(text)
			n.WriteString(MarkerClose)
		}
	}
	return o.String(), n.String()
}

func identity(s string) string { return s }
