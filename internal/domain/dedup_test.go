package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueSorted(t *testing.T) {
	t.Run("removes exact duplicates", func(t *testing.T) {
		in := []Tuple{
			{"TA", "Air Temp", "C"},
			{"RH", "Rel Humidity", "%"},
			{"TA", "Air Temp", "C"},
			{"TA", "Air Temp", "C"},
		}

		out := UniqueSorted(in)

		assert.Equal(t, []Tuple{
			{"RH", "Rel Humidity", "%"},
			{"TA", "Air Temp", "C"},
		}, out)
	})

	t.Run("sorts lexicographically across all fields", func(t *testing.T) {
		in := []Tuple{
			{"TA", "Air Temp Max", "C"},
			{"TA", "Air Temp", "C"},
			{"RH", "Rel Humidity", "%"},
		}

		out := UniqueSorted(in)

		assert.Equal(t, []Tuple{
			{"RH", "Rel Humidity", "%"},
			{"TA", "Air Temp", "C"},
			{"TA", "Air Temp Max", "C"},
		}, out)
	})

	t.Run("shorter tuple sorts before its extension", func(t *testing.T) {
		out := UniqueSorted([]Tuple{{"TA", "Air Temp", "C"}, {"TA", "Air Temp"}})

		assert.Equal(t, []Tuple{{"TA", "Air Temp"}, {"TA", "Air Temp", "C"}}, out)
	})

	t.Run("same fields different arity are distinct", func(t *testing.T) {
		out := UniqueSorted([]Tuple{{"TA"}, {"TA"}, {"TA", ""}})

		assert.Len(t, out, 2)
	})

	t.Run("does not modify the input", func(t *testing.T) {
		in := []Tuple{{"Z"}, {"A"}, {"Z"}}

		out := UniqueSorted(in)

		assert.Equal(t, []Tuple{{"Z"}, {"A"}, {"Z"}}, in)
		out[0][0] = "mutated"
		assert.Equal(t, "A", in[1][0])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, UniqueSorted(nil))
	})
}
