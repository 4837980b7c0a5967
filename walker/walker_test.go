package walker

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ns = "urn:test"

const doc = `<?xml version="1.0" encoding="UTF-8"?>
<Root xmlns="urn:test" xmlns:x="urn:other">
  <Point>
    <Time> 2016-08-24T13:29:25Z </Time>
    <x:Time>ignored</x:Time>
    <Noise><Deep>skip me</Deep></Noise>
    <Rate>
      <Value>140</Value>
    </Rate>
  </Point>
  <!-- comment -->
  <Point>
    <Time></Time>
  </Point>
</Root>`

func name(local string) xml.Name { return xml.Name{Space: ns, Local: local} }

func allTags() []xml.Name {
	return []xml.Name{name("Point"), name("Time"), name("Rate"), name("Value")}
}

func collect(t *testing.T, w *Walker) []Element {
	t.Helper()
	var out []Element
	for el, err := range w.All() {
		require.NoError(t, err)
		out = append(out, el)
	}
	return out
}

func TestWalkerFiltersByQualifiedName(t *testing.T) {
	w := New(strings.NewReader(doc), allTags()...)
	got := collect(t, w)

	locals := make([]string, 0, len(got))
	for _, el := range got {
		locals = append(locals, el.Name.Local)
		assert.Equal(t, ns, el.Name.Space)
	}
	assert.Equal(t, []string{"Point", "Time", "Rate", "Value", "Point", "Time"}, locals)

	assert.Equal(t, "2016-08-24T13:29:25Z", got[1].Text)
	assert.True(t, got[1].HasText)
	assert.False(t, got[2].HasText, "container with only whitespace has no text")
	assert.Equal(t, "140", got[3].Text)
	assert.False(t, got[5].HasText)
}

func TestWalkerPeekDoesNotConsume(t *testing.T) {
	w := New(strings.NewReader(doc), allTags()...)

	first, err := w.Peek()
	require.NoError(t, err)
	again, err := w.Peek()
	require.NoError(t, err)
	assert.Equal(t, first, again)

	next, err := w.Next()
	require.NoError(t, err)
	assert.Equal(t, first, next)
	assert.True(t, next.Is("Point"))
}

func TestWalkerExpect(t *testing.T) {
	w := New(strings.NewReader(doc), allTags()...)

	_, ok, err := w.Expect("Time")
	require.NoError(t, err)
	assert.False(t, ok, "Point comes first")

	el, ok, err := w.Expect("Point")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, el.Is("Point"))

	el, ok, err = w.Expect("Time")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2016-08-24T13:29:25Z", el.Text)
}

func TestWalkerExpectAtEOF(t *testing.T) {
	w := New(strings.NewReader(`<Root xmlns="urn:test"><Time>a</Time></Root>`), name("Time"))
	_, err := w.Next()
	require.NoError(t, err)

	_, ok, err := w.Expect("Value")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = w.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWalkerMalformedInput(t *testing.T) {
	cases := map[string]string{
		"truncated":  `<Root xmlns="urn:test"><Point><Time>2016`,
		"mismatched": `<Root xmlns="urn:test"><Point><Time>x</Point></Root>`,
		"broken tag": `<Root xmlns="urn:test"><Point><Tim`,
	}
	for label, input := range cases {
		t.Run(label, func(t *testing.T) {
			w := New(strings.NewReader(input), allTags()...)
			var err error
			for {
				_, err = w.Next()
				if err != nil {
					break
				}
			}
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.False(t, errors.Is(err, io.EOF))

			_, again := w.Next()
			assert.ErrorIs(t, again, ErrMalformedInput, "error is sticky")
		})
	}
}

func TestWalkerRequiresSingleDocumentElement(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"prolog only":   `<?xml version="1.0" encoding="UTF-8"?>` + "\n",
		"plain text":    "this is not xml at all",
		"two roots":     `<Root xmlns="urn:test"></Root><Root xmlns="urn:test"></Root>`,
		"self-closed":   `<a/><b/>`,
		"trailing text": `<Root xmlns="urn:test"><Time>a</Time></Root>junk`,
	}
	for label, input := range cases {
		t.Run(label, func(t *testing.T) {
			w := New(strings.NewReader(input), allTags()...)
			var err error
			for {
				_, err = w.Next()
				if err != nil {
					break
				}
			}
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}
}

func TestWalkerAllowsWhitespaceAroundRoot(t *testing.T) {
	input := "<?xml version=\"1.0\"?>\n<!-- lead -->\n<Root xmlns=\"urn:test\"><Time>a</Time></Root>\n\n"
	w := New(strings.NewReader(input), name("Time"))
	got := collect(t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Text)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.tcx"), allTags()...)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	w, err := Open(path, name("Value"))
	require.NoError(t, err)
	defer w.Close()

	got := collect(t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "140", got[0].Text)
	assert.NoError(t, w.Close())
}
