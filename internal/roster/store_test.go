package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-console/internal/models"
)

func seeded() *Store {
	store := NewStore()
	store.Dispatch(Loaded([]models.Student{
		{ID: "a", Name: "Amy"},
		{ID: "b", Name: "Bob"},
	}))
	return store
}

func TestLoadedReplacesRoster(t *testing.T) {
	store := seeded()
	snap := store.Snapshot()
	require.True(t, snap.Loaded)
	assert.Len(t, snap.Students, 2)

	store.Dispatch(Loaded([]models.Student{{ID: "c", Name: "Cat"}}))
	assert.Equal(t, []models.Student{{ID: "c", Name: "Cat"}}, store.Students())
}

func TestUpsertReplacesInPlace(t *testing.T) {
	store := seeded()
	before := store.Snapshot()

	changed := store.Dispatch(Upserted(models.Student{ID: "a", Name: "Amy", Banned: true}, store.Issue()))
	require.True(t, changed)

	students := store.Students()
	require.Len(t, students, 2)
	assert.Equal(t, "a", students[0].ID)
	assert.True(t, students[0].Banned)
	assert.False(t, before.Students[0].Banned, "earlier snapshots stay untouched")
	assert.Greater(t, store.Snapshot().Version, before.Version)
}

func TestUpsertAppendsUnknownID(t *testing.T) {
	store := seeded()
	store.Dispatch(Upserted(models.Student{ID: "z", Name: "Zed"}, 0))
	students := store.Students()
	require.Len(t, students, 3)
	assert.Equal(t, "z", students[2].ID)
}

func TestAppendKeepsOrder(t *testing.T) {
	store := seeded()
	store.Dispatch(Appended(models.Student{ID: "c", Name: "Cat"}))
	ids := []string{}
	for _, s := range store.Students() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestStaleResponseIsDropped(t *testing.T) {
	store := seeded()
	first := store.Issue()
	second := store.Issue()

	require.True(t, store.Dispatch(Upserted(models.Student{ID: "b", Name: "Bob", Banned: false}, second)))
	assert.False(t, store.Dispatch(Upserted(models.Student{ID: "b", Name: "Bob", Banned: true}, first)))

	b, ok := store.Snapshot().Find("b")
	require.True(t, ok)
	assert.False(t, b.Banned)
}

func TestTicketsAreIndependentPerRecord(t *testing.T) {
	store := seeded()
	older := store.Issue()
	newer := store.Issue()

	require.True(t, store.Dispatch(Upserted(models.Student{ID: "a", Name: "Amy 2"}, newer)))
	assert.True(t, store.Dispatch(Upserted(models.Student{ID: "b", Name: "Bob 2"}, older)))
}

func TestSelectionFollowsUpsert(t *testing.T) {
	store := seeded()
	a, _ := store.Snapshot().Find("a")
	store.Dispatch(Selected(a))

	store.Dispatch(Upserted(models.Student{ID: "a", Name: "Amelia"}, store.Issue()))
	require.NotNil(t, store.Snapshot().Selected)
	assert.Equal(t, "Amelia", store.Snapshot().Selected.Name)

	store.Dispatch(Upserted(models.Student{ID: "b", Name: "Robert"}, store.Issue()))
	assert.Equal(t, "Amelia", store.Snapshot().Selected.Name)

	assert.True(t, store.Dispatch(Deselected()))
	assert.Nil(t, store.Snapshot().Selected)
	assert.False(t, store.Dispatch(Deselected()))
}

func TestReloadRefreshesSelection(t *testing.T) {
	store := seeded()
	a, _ := store.Snapshot().Find("a")
	store.Dispatch(Selected(a))

	store.Dispatch(Loaded([]models.Student{{ID: "a", Name: "Amy Reloaded"}}))
	require.NotNil(t, store.Snapshot().Selected)
	assert.Equal(t, "Amy Reloaded", store.Snapshot().Selected.Name)

	store.Dispatch(Loaded([]models.Student{{ID: "b", Name: "Bob"}}))
	assert.Nil(t, store.Snapshot().Selected)
}
