package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		total      int
		wantNumber int
		wantOffset int
	}{
		{"first page by default", "", 15, 1, 0},
		{"second page", "2", 15, 2, 10},
		{"not a number", "abc", 15, 1, 0},
		{"past the end clamps to last", "99", 15, 2, 10},
		{"zero clamps to last", "0", 15, 2, 10},
		{"negative clamps to last", "-1", 15, 2, 10},
		{"empty listing", "", 0, 1, 0},
		{"empty listing, page 5", "5", 0, 1, 0},
		{"exact multiple", "2", 20, 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(tt.raw, tt.total, 10)
			assert.Equal(t, tt.wantNumber, w.Number)
			assert.Equal(t, tt.wantOffset, w.Offset)
			assert.Equal(t, 10, w.Limit)
		})
	}
}

func TestNumPages(t *testing.T) {
	assert.Equal(t, 1, NumPages(0, 10))
	assert.Equal(t, 1, NumPages(10, 10))
	assert.Equal(t, 2, NumPages(11, 10))
	assert.Equal(t, 2, NumPages(15, 10))
}

func TestPage(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	p := New(items, Resolve("2", 15, 10), 15)

	assert.Equal(t, 2, p.Number)
	assert.Equal(t, 2, p.NumPages)
	assert.Equal(t, 15, p.TotalItems)
	assert.True(t, p.HasPrevious())
	assert.False(t, p.HasNext())
	assert.True(t, p.HasOtherPages())
	assert.Equal(t, 1, p.PreviousNumber())
	assert.Equal(t, []int{1, 2}, p.PageRange())
	assert.Len(t, p.Items, 5)
}

func TestPage_Empty(t *testing.T) {
	p := New([]int{}, Resolve("", 0, 10), 0)

	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.NumPages)
	assert.False(t, p.HasPrevious())
	assert.False(t, p.HasNext())
	assert.False(t, p.HasOtherPages())
	assert.Empty(t, p.Items)
}
