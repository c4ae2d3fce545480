package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "history.json"))
}

func device(name string) model.Device {
	return model.Device{
		Name:     name,
		Host:     "10.0.0.1",
		Services: []string{"SSH"},
		Tags:     []model.Tag{{Key: "env", Value: "prod"}},
	}
}

func entryNames(entries []Entry) []string {
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestRecordOrdersMostRecentFirst(t *testing.T) {
	store := testStore(t)

	store.Record(device("a"))
	store.Record(device("b"))

	assert.Equal(t, []string{"b", "a"}, entryNames(store.List()))
}

func TestRecordDeduplicatesByName(t *testing.T) {
	store := testStore(t)

	store.Record(device("a"))
	store.Record(device("b"))
	store.Record(device("a"))

	assert.Equal(t, []string{"a", "b"}, entryNames(store.List()))
}

func TestRecordCapsAtTenEntries(t *testing.T) {
	store := testStore(t)

	for i := 0; i < 25; i++ {
		store.Record(device(fmt.Sprintf("dev%02d", i)))
	}

	entries := store.List()
	require.Len(t, entries, 10)
	assert.Equal(t, "dev24", entries[0].Name)
	assert.Equal(t, "dev15", entries[9].Name)
}

func TestRecordDenormalizesDisplayFields(t *testing.T) {
	store := testStore(t)
	store.Record(device("a"))

	entries := store.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "10.0.0.1", entries[0].Host)
	assert.Equal(t, []string{"SSH"}, entries[0].Services)
	assert.Equal(t, []string{"env:prod"}, entries[0].Tags)
	assert.WithinDuration(t, time.Now(), entries[0].Timestamp, time.Minute)
}

func TestListToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	assert.Nil(t, New(path).List())
}
