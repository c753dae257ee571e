package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtract(t *testing.T) {
	t.Run("well-formed extract", func(t *testing.T) {
		data := []byte(`{"data":{"data":{"header":"WSI,GH_ID,FULL_NAME,GEOGR1,GEOGR2,ELEVATION","values":[["0-20000-0-11518","P1PKLE01","Praha-Klementinum",14.41,50.08,191.0]]}}}`)

		extract, err := ParseExtract(data)

		require.NoError(t, err)
		assert.Equal(t, []string{"WSI", "GH_ID", "FULL_NAME", "GEOGR1", "GEOGR2", "ELEVATION"}, extract.Header)
		require.Len(t, extract.Rows, 1)
		assert.Equal(t, []string{"0-20000-0-11518", "P1PKLE01", "Praha-Klementinum", "14.41", "50.08", "191.0"}, extract.Rows[0])
	})

	t.Run("numbers keep their literal form", func(t *testing.T) {
		data := []byte(`{"data":{"data":{"header":"A,B","values":[[191,0.080000001]]}}}`)

		extract, err := ParseExtract(data)

		require.NoError(t, err)
		assert.Equal(t, []string{"191", "0.080000001"}, extract.Rows[0])
	})

	t.Run("null becomes empty string", func(t *testing.T) {
		data := []byte(`{"data":{"data":{"header":"A,B","values":[["x",null]]}}}`)

		extract, err := ParseExtract(data)

		require.NoError(t, err)
		assert.Equal(t, []string{"x", ""}, extract.Rows[0])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseExtract([]byte(`{not json`))

		require.ErrorIs(t, err, ErrMalformedExtract)
	})

	t.Run("missing envelope", func(t *testing.T) {
		_, err := ParseExtract([]byte(`{"header":"A,B","values":[]}`))

		require.ErrorIs(t, err, ErrMalformedExtract)
		assert.Contains(t, err.Error(), "empty header")
	})

	t.Run("row shorter than header", func(t *testing.T) {
		data := []byte(`{"data":{"data":{"header":"A,B,C","values":[["x","y"]]}}}`)

		_, err := ParseExtract(data)

		require.ErrorIs(t, err, ErrMalformedExtract)
		assert.Contains(t, err.Error(), "row 0")
	})

	t.Run("row longer than header", func(t *testing.T) {
		data := []byte(`{"data":{"data":{"header":"A,B","values":[["x","y","z"]]}}}`)

		_, err := ParseExtract(data)

		require.ErrorIs(t, err, ErrMalformedExtract)
	})

	t.Run("nested value where scalar expected", func(t *testing.T) {
		data := []byte(`{"data":{"data":{"header":"A,B","values":[["x",["nested"]]]}}}`)

		_, err := ParseExtract(data)

		require.ErrorIs(t, err, ErrMalformedExtract)
	})

	t.Run("no rows is valid", func(t *testing.T) {
		data := []byte(`{"data":{"data":{"header":"A,B","values":[]}}}`)

		extract, err := ParseExtract(data)

		require.NoError(t, err)
		assert.Empty(t, extract.Rows)
	})
}

func TestNormalizeWSI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean id", "0-20000-0-11518", "0-20000-0-11518"},
		{"leading and trailing spaces", " ABC1 ", "ABC1"},
		{"internal spaces", " ABC 1 ", "ABC1"},
		{"tabs", "\tABC1\t", "ABC1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWSI(tt.in))
		})
	}
}
