package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("defaults when absent", func(t *testing.T) {
		page := Parse(url.Values{})
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, 10, page.Size)
	})

	t.Run("reads pageNo and itemsPerPage", func(t *testing.T) {
		page := Parse(url.Values{"pageNo": {"3"}, "itemsPerPage": {"25"}})
		assert.Equal(t, 3, page.Number)
		assert.Equal(t, 25, page.Size)
		assert.Equal(t, 50, page.Offset())
	})

	t.Run("clamps nonsense values", func(t *testing.T) {
		page := Parse(url.Values{"pageNo": {"-2"}, "itemsPerPage": {"9000"}})
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, 100, page.Size)
	})
}

func TestSliceAndMeta(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	t.Run("slices the requested window", func(t *testing.T) {
		assert.Equal(t, []int{3, 4}, Slice(items, Page{Number: 2, Size: 2}))
	})

	t.Run("returns the partial final page", func(t *testing.T) {
		assert.Equal(t, []int{5}, Slice(items, Page{Number: 3, Size: 2}))
	})

	t.Run("returns empty past the end", func(t *testing.T) {
		assert.Empty(t, Slice(items, Page{Number: 9, Size: 2}))
	})

	t.Run("meta reports totals", func(t *testing.T) {
		meta := MetaFor(Page{Number: 2, Size: 2}, 5)
		assert.Equal(t, 2, meta.CurrentPage)
		assert.Equal(t, 2, meta.ItemsPerPage)
		assert.Equal(t, 5, meta.TotalItems)
		assert.Equal(t, 3, meta.TotalPages)
	})
}
