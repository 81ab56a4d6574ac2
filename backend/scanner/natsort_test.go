package scanner

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalLess(t *testing.T) {
	names := []string{"10. Outro.mp4", "2. Basics.mp4", "1. Intro.mp4", "20. Bonus.mp4"}
	sort.SliceStable(names, func(i, j int) bool {
		return naturalLess(names[i], names[j])
	})
	assert.Equal(t, []string{"1. Intro.mp4", "2. Basics.mp4", "10. Outro.mp4", "20. Bonus.mp4"}, names)
}

func TestNaturalLessCaseInsensitive(t *testing.T) {
	assert.True(t, naturalLess("alpha", "Beta"))
	assert.True(t, naturalLess("Alpha", "beta"))
	assert.False(t, naturalLess("beta", "ALPHA"))
}

func TestNaturalLessLeadingZeros(t *testing.T) {
	assert.True(t, naturalLess("lesson 02", "lesson 10"))
	assert.True(t, naturalLess("lesson 002", "lesson 10"))
	assert.False(t, naturalLess("lesson 10", "lesson 2"))
}

func TestNaturalLessPlainStrings(t *testing.T) {
	assert.True(t, naturalLess("abc", "abd"))
	assert.True(t, naturalLess("ab", "abc"))
	assert.False(t, naturalLess("abc", "abc"))
}
