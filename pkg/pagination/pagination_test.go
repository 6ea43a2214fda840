package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id string
	at time.Time
}

func keyOf(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

func rows(n int) []row {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	out := make([]row, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, row{id: string(rune('a' + i)), at: base.Add(time.Duration(i) * time.Minute)})
	}
	return out
}

func TestPaginateWalksAllPages(t *testing.T) {
	items := rows(5)

	first, err := Paginate(items, Params{Limit: 2}, keyOf)
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.Equal(t, 5, first.Total)
	require.NotEmpty(t, first.Cursor)

	second, err := Paginate(items, Params{Limit: 2, Cursor: first.Cursor}, keyOf)
	require.NoError(t, err)
	assert.Equal(t, items[2:4], second.Items)

	third, err := Paginate(items, Params{Limit: 2, Cursor: second.Cursor}, keyOf)
	require.NoError(t, err)
	assert.Equal(t, items[4:], third.Items)
	assert.Empty(t, third.Cursor)
}

func TestPaginateSurvivesDeletedCursorRow(t *testing.T) {
	items := rows(4)
	first, err := Paginate(items, Params{Limit: 2}, keyOf)
	require.NoError(t, err)

	// the row the cursor points at disappears before the next request
	remaining := append(append([]row{}, items[:2]...), items[3:]...)
	next, err := Paginate(remaining, Params{Limit: 2, Cursor: first.Cursor}, keyOf)
	require.NoError(t, err)
	assert.Equal(t, []row{items[3]}, next.Items)
}

func TestPaginateEmptyAndInvalid(t *testing.T) {
	page, err := Paginate([]row{}, Params{}, keyOf)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)

	_, err = Paginate(rows(2), Params{Cursor: "%%%"}, keyOf)
	assert.Error(t, err)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
	assert.Equal(t, 7, NormalizeLimit(7))
}
