// Package walker provides a forward-only cursor over the start elements of an
// XML document, filtered to an allow-list of fully-qualified tag names.
package walker

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"
)

var (
	// ErrMalformedInput is returned when the document is not well-formed XML.
	ErrMalformedInput = errors.New("malformed xml input")

	// ErrNotFound is returned when the input file does not exist.
	ErrNotFound = errors.New("input file not found")
)

// Element is one matched start element and its leading text content.
type Element struct {
	Name    xml.Name
	Text    string
	HasText bool
}

// Is reports whether the element has the given local name.
func (e Element) Is(local string) bool {
	return e.Name.Local == local
}

// Walker yields matched elements in document order.
type Walker struct {
	dec    *xml.Decoder
	closer io.Closer
	allow  map[xml.Name]struct{}

	// pending is a start element read while collecting the previous element's text.
	pending *xml.StartElement
	peeked  *Element
	done    bool
	err     error

	// depth counts open elements; rootSeen is set once the document element starts.
	depth    int
	rootSeen bool
}

// Open opens path and returns a walker over it. The caller must Close it.
func Open(path string, tags ...xml.Name) (*Walker, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open xml file: %w", err)
	}
	w := New(f, tags...)
	w.closer = f
	return w, nil
}

// New returns a walker reading from r.
func New(r io.Reader, tags ...xml.Name) *Walker {
	allow := make(map[xml.Name]struct{}, len(tags))
	for _, t := range tags {
		allow[t] = struct{}{}
	}
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &Walker{dec: dec, allow: allow}
}

// Close releases the underlying file, if any.
func (w *Walker) Close() error {
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// Next consumes and returns the next matched element. It returns io.EOF once
// the document is exhausted.
func (w *Walker) Next() (Element, error) {
	if w.peeked != nil {
		el := *w.peeked
		w.peeked = nil
		return el, nil
	}
	return w.advance()
}

// Peek returns the next matched element without consuming it.
func (w *Walker) Peek() (Element, error) {
	if w.peeked != nil {
		return *w.peeked, nil
	}
	el, err := w.advance()
	if err != nil {
		return Element{}, err
	}
	w.peeked = &el
	return el, nil
}

// Expect consumes the next element only if its local name matches. On a
// mismatch, or at the end of the document, the cursor is left in place and
// ok is false.
func (w *Walker) Expect(local string) (el Element, ok bool, err error) {
	next, err := w.Peek()
	if errors.Is(err, io.EOF) {
		return Element{}, false, nil
	}
	if err != nil {
		return Element{}, false, err
	}
	if !next.Is(local) {
		return Element{}, false, nil
	}
	w.peeked = nil
	return next, true, nil
}

// All iterates the remaining elements. Iteration stops after the first error,
// which is yielded once; io.EOF is not yielded.
func (w *Walker) All() iter.Seq2[Element, error] {
	return func(yield func(Element, error) bool) {
		for {
			el, err := w.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(el, err) || err != nil {
				return
			}
		}
	}
}

func (w *Walker) advance() (Element, error) {
	if w.err != nil {
		return Element{}, w.err
	}
	if w.done {
		return Element{}, io.EOF
	}
	for {
		var se xml.StartElement
		if w.pending != nil {
			se = *w.pending
			w.pending = nil
		} else {
			tok, err := w.token()
			if errors.Is(err, io.EOF) {
				w.done = true
				return Element{}, io.EOF
			}
			if err != nil {
				return Element{}, w.fail(err)
			}
			start, ok := tok.(xml.StartElement)
			if !ok {
				continue
			}
			se = start
		}
		if _, ok := w.allow[se.Name]; !ok {
			continue
		}
		text, err := w.leadingText()
		if err != nil {
			return Element{}, err
		}
		return Element{Name: se.Name, Text: text, HasText: text != ""}, nil
	}
}

// leadingText collects character data up to the element's first child or its
// end tag. A child start element is kept as pending for the next advance.
func (w *Walker) leadingText() (string, error) {
	var b strings.Builder
	for {
		tok, err := w.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", w.fail(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			start := t.Copy()
			w.pending = &start
			return strings.TrimSpace(b.String()), nil
		case xml.EndElement:
			return strings.TrimSpace(b.String()), nil
		}
	}
}

// token reads the next token and rejects input that does not hold exactly
// one document element.
func (w *Walker) token() (xml.Token, error) {
	tok, err := w.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) && !w.rootSeen {
			return nil, errors.New("no element found")
		}
		return nil, err
	}
	switch t := tok.(type) {
	case xml.StartElement:
		if w.depth == 0 && w.rootSeen {
			return nil, fmt.Errorf("junk after document element: <%s>", t.Name.Local)
		}
		w.rootSeen = true
		w.depth++
	case xml.EndElement:
		w.depth--
	case xml.CharData:
		if w.depth == 0 && strings.TrimSpace(strings.TrimPrefix(string(t), "\ufeff")) != "" {
			if w.rootSeen {
				return nil, errors.New("junk after document element")
			}
			return nil, errors.New("text outside the document element")
		}
	}
	return tok, nil
}

func (w *Walker) fail(err error) error {
	w.err = fmt.Errorf("%w: %v", ErrMalformedInput, err)
	return w.err
}
