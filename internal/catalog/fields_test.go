package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrocart_back_end/internal/apperr"
)

func TestParseProductFields_FormValues(t *testing.T) {
	in, err := ParseProductFields(map[string]any{
		"name":          " Alpha Watch ",
		"price":         "3500",
		"originalPrice": "4800.50",
		"countInStock":  "10",
		"featured":      "true",
		"images":        `["/uploads/a.png", " ", "/uploads/b.png"]`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Watch", *in.Name)
	assert.Equal(t, 3500.0, *in.Price)
	assert.Equal(t, 4800.5, *in.OriginalPrice)
	assert.Equal(t, 10, *in.Stock)
	assert.True(t, *in.Featured)
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/b.png"}, in.Images)
	assert.Nil(t, in.Description)
}

func TestParseProductFields_JSONNumbers(t *testing.T) {
	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"name":"X","price":12.5,"stock":3,"featured":false,"images":["/uploads/x.png"]}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&raw))

	in, err := ParseProductFields(raw)
	require.NoError(t, err)
	assert.Equal(t, 12.5, *in.Price)
	assert.Equal(t, 3, *in.Stock)
	assert.False(t, *in.Featured)
	assert.Equal(t, []string{"/uploads/x.png"}, in.Images)
}

func TestParseProductFields_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"price not a number": {"price": "abc"},
		"negative price":     {"price": -1.0},
		"negative stock":     {"stock": "-2"},
		"fractional stock":   {"stock": 1.5},
		"bad images":         {"images": 42},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProductFields(raw)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestParseProductFields_EmptyNumberIsAbsent(t *testing.T) {
	in, err := ParseProductFields(map[string]any{"price": "", "stock": " "})
	require.NoError(t, err)
	assert.Nil(t, in.Price)
	assert.Nil(t, in.Stock)
}

func TestParseNameList(t *testing.T) {
	got, err := ParseNameList("a.png, b.png,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, got)

	got, err = ParseNameList([]any{"c.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.png"}, got)

	got, err = ParseNameList(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
