package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

func TestEnum(t *testing.T) {
	e := NewEnum("level", map[string]level{"debug": "D", "Info": "I"}, "I")

	assert.Equal(t, level("D"), e.Normalize("  DEBUG "))
	assert.Equal(t, level("I"), e.Normalize("verbose"))
	assert.Equal(t, []string{"debug", "info"}, e.Keys())

	v, err := e.Parse("info")
	require.NoError(t, err)
	assert.Equal(t, level("I"), v)

	_, err = e.Parse("loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid level "loud"`)
}

func TestText(t *testing.T) {
	assert.Equal(t, "SUP 42", Text("  SUP \t 42\n"))
	assert.Nil(t, OptionalText("   "))
	got := OptionalText(" A-1 ")
	require.NotNil(t, got)
	assert.Equal(t, "A-1", *got)
}
