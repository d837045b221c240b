package xmltree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleVersusRepeated(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<root>
  <one type="int32">7</one>
  <many>a</many>
  <many>b</many>
  <plain>text</plain>
  <nested><leaf>1.5</leaf></nested>
</root>`
	tree, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	root, ok := tree["root"].(Node)
	require.True(t, ok)

	one, ok := root["one"].(Node)
	require.True(t, ok)
	assert.Equal(t, "int32", one["type"])
	assert.Equal(t, "7", one[TextKey])

	assert.Equal(t, []any{"a", "b"}, root["many"])
	assert.Equal(t, "text", root["plain"])

	f, ok := Float(Field(root["nested"], "leaf"))
	require.True(t, ok)
	assert.Equal(t, 1.5, f)
}

func TestListNormalizes(t *testing.T) {
	assert.Nil(t, List(nil))
	assert.Equal(t, []any{"x"}, List("x"))
	assert.Equal(t, []any{"x", "y"}, List([]any{"x", "y"}))
	n := Node{"a": "b"}
	assert.Equal(t, []any{n}, List(n))
}

func TestTextAndNumbers(t *testing.T) {
	s, ok := Text(Node{TextKey: " 42 ", "type": "uint32"})
	require.True(t, ok)
	assert.Equal(t, "42", s)

	n, ok := Int(Node{TextKey: "42"})
	require.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = Int("4.2")
	assert.False(t, ok)
	_, ok = Float("abc")
	assert.False(t, ok)
	_, ok = Text(Node{"type": "float32"})
	assert.False(t, ok)
	_, ok = Text([]any{"1"})
	assert.False(t, ok)

	f, ok := Float(98.5)
	require.True(t, ok)
	assert.Equal(t, 98.5, f)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Parse(strings.NewReader("<a><b></a>"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("<a>"))
	assert.Error(t, err)
}
