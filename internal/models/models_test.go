package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, Address("0xabcdef"), NormalizeAddress("  0xAbCdEf "))
	assert.Equal(t, Address(""), NormalizeAddress("   "))
}

func TestAddressSet(t *testing.T) {
	s := NewAddressSet("0xAAA", "0xbbb", "0xaaa", "")

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Address{"0xaaa", "0xbbb"}, s.Items())
	assert.True(t, s.Contains("0xBBB"))

	other := NewAddressSet("0xccc", "0xbbb")
	s.Union(other)
	assert.Equal(t, []Address{"0xaaa", "0xbbb", "0xccc"}, s.Items())
}

func TestHolderRecord_Total(t *testing.T) {
	r := NewHolderRecord("0xa", 100, 50)
	assert.Equal(t, int64(150), r.Total)

	r.LockedAmount = 10
	r.Recompute()
	assert.Equal(t, int64(110), r.Total)
}

func TestNameEntry(t *testing.T) {
	assert.Nil(t, NoName().Ptr())
	assert.Nil(t, Named("").Ptr())

	name := Named("alice.eth").Ptr()
	if assert.NotNil(t, name) {
		assert.Equal(t, "alice.eth", *name)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 5, p.Total)

	last := Paginate(items, 3, 2)
	assert.Equal(t, []int{5}, last.Items)

	out := Paginate(items, 9, 2)
	assert.Empty(t, out.Items)

	empty := Paginate([]int{}, 1, 25)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestAddress_Short(t *testing.T) {
	assert.Equal(t, "0x...dead0", Address("0x000000000000000000000000000000000000dead0").Short())
}
