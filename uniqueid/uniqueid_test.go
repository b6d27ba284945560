package uniqueid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	id := ForEngine("tinst").
		Append(TypeClass, "pkg.CalculatorTests").
		Append(TypeNestedClass, "Inner").
		Append(TypeMethod, "adds")

	assert.Equal(t, "[engine:tinst]/[class:pkg.CalculatorTests]/[nested-class:Inner]/[method:adds]", id.String())
}

func TestFormat_EscapesReservedCharacters(t *testing.T) {
	id := ForEngine("tinst").Append(TypeMethod, "a/b[c]:d%e")

	assert.Equal(t, "[engine:tinst]/[method:a%2Fb%5Bc%5D%3Ad%25e]", Format(id))
}

func TestParse_RoundTrip(t *testing.T) {
	ids := []ID{
		ForEngine("tinst"),
		ForEngine("tinst").Append(TypeClass, "Calculator"),
		ForEngine("e:1").Append(TypeClass, "[weird]/name").Append(TypeMethod, "100%"),
		ForEngine("tinst").Append("custom:type", "value").Append(TypeMethod, ""),
	}

	for _, id := range ids {
		t.Run(id.String(), func(t *testing.T) {
			parsed, err := Parse(Format(id))
			require.NoError(t, err)
			assert.True(t, parsed.Equal(id))
			if diff := cmp.Diff(id.Segments(), parsed.Segments()); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ZeroID(t *testing.T) {
	var zero ID

	parsed, err := Parse(Format(zero))
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())
	assert.True(t, parsed.Equal(zero))
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{
		"engine:tinst",
		"[engine:tinst]/",
		"[engine]",
		"[engine:tinst]/[method:%]",
		"[engine:tinst]/[method:%zz]",
		"[engine:tinst]/[method:%2]",
	} {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			assert.Error(t, err)
		})
	}
}

func TestID_Navigation(t *testing.T) {
	root := ForEngine("tinst")
	class := root.Append(TypeClass, "A")
	method := class.Append(TypeMethod, "m")

	assert.Equal(t, Segment{Type: TypeMethod, Value: "m"}, method.Last())
	assert.True(t, method.Parent().Equal(class))
	assert.True(t, class.Parent().Equal(root))
	assert.False(t, method.Equal(class))
	assert.False(t, class.Equal(root.Append(TypeClass, "B")))

	var zero ID
	assert.True(t, zero.IsZero())
	assert.Equal(t, Segment{}, zero.Last())
	assert.True(t, zero.Parent().IsZero())
	assert.False(t, root.IsZero())
}

func TestID_AppendDoesNotAlias(t *testing.T) {
	class := ForEngine("tinst").Append(TypeClass, "A")
	first := class.Append(TypeMethod, "one")
	second := class.Append(TypeMethod, "two")

	assert.Equal(t, "one", first.Last().Value)
	assert.Equal(t, "two", second.Last().Value)
	assert.Len(t, class.Segments(), 2)
}
