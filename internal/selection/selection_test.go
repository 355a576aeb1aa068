package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/doctools/internal/docerr"
)

func TestToggleKeepsInsertionOrder(t *testing.T) {
	s := New(5)
	var err error
	for _, p := range []int{3, 1, 5} {
		s, err = s.Toggle(p)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{3, 1, 5}, s.Pages())

	s, err = s.Toggle(1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5}, s.Pages())
}

func TestToggleTwiceRestoresSelection(t *testing.T) {
	base, err := FromPages(4, []int{2, 4})
	require.NoError(t, err)
	for page := 1; page <= 4; page++ {
		once, err := base.Toggle(page)
		require.NoError(t, err)
		twice, err := once.Toggle(page)
		require.NoError(t, err)
		if base.Contains(page) {
			// removing then re-adding moves the page to the end
			assert.ElementsMatch(t, base.Pages(), twice.Pages())
		} else {
			assert.Equal(t, base.Pages(), twice.Pages())
		}
	}
}

func TestToggleDoesNotMutateReceiver(t *testing.T) {
	s, err := FromPages(3, []int{1})
	require.NoError(t, err)
	_, err = s.Toggle(2)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, s.Pages())
}

func TestToggleOutOfRange(t *testing.T) {
	for _, p := range []int{0, -1, 4} {
		_, err := New(3).Toggle(p)
		require.Error(t, err)
		assert.True(t, docerr.IsValidation(err))
	}
}

func TestFromPagesReplaysToggles(t *testing.T) {
	s, err := FromPages(5, []int{3, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, s.Pages())

	s, err = FromPages(5, []int{4, 2, 4, 2})
	require.NoError(t, err)
	assert.True(t, s.Empty())

	s, err = FromPages(5, []int{2, 5, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 2}, s.Pages())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want []int
		err  bool
	}{
		{in: "3,1", want: []int{3, 1}},
		{in: " 2 , 5-7 ", want: []int{2, 5, 6, 7}},
		{in: "4-2", want: []int{4, 3, 2}},
		{in: "x", err: true},
		{in: "1-y", err: true},
		{in: " , ", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
