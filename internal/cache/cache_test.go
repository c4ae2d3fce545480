package cache

import (
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
	return New(filepath.Join(t.TempDir(), "cache.json"))
}

func testDevices(names ...string) []model.Device {
	var devices []model.Device
	for _, name := range names {
		devices = append(devices, model.Device{
			Name:        name,
			Host:        "10.0.0.1",
			Services:    []string{"SSH"},
			Tags:        []model.Tag{{Key: "env", Value: "prod"}},
			Description: "test device",
		})
	}
	return devices
}

func deviceNames(devices []model.Device) []string {
	var names []string
	for _, d := range devices {
		names = append(names, d.Name)
	}
	return names
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := testStore(t)

	store.Save(testDevices("web1", "db1"))

	loaded, ok := store.Load(false)
	require.True(t, ok)
	assert.Equal(t, []string{"web1", "db1"}, deviceNames(loaded))

	// Denormalized fields survive the round trip.
	assert.Equal(t, "10.0.0.1", loaded[0].Host)
	assert.Equal(t, []string{"SSH"}, loaded[0].Services)
	assert.Equal(t, []model.Tag{{Key: "env", Value: "prod"}}, loaded[0].Tags)
	assert.Equal(t, "test device", loaded[0].Description)
}

func TestLoadForceRefreshIgnoresDisk(t *testing.T) {
	store := testStore(t)
	store.Save(testDevices("web1"))

	devices, ok := store.Load(true)
	assert.False(t, ok)
	assert.Nil(t, devices)
}

func TestLoadMissingFile(t *testing.T) {
	devices, ok := testStore(t).Load(false)
	assert.False(t, ok)
	assert.Nil(t, devices)
}

func TestLoadCorruptFileBehavesLikeMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	devices, ok := New(path).Load(false)
	assert.False(t, ok)
	assert.Nil(t, devices)
}

func TestSaveReportsSetDifference(t *testing.T) {
	store := testStore(t)

	// First save has no previous snapshot to compare against.
	added := store.Save(testDevices("web1", "db1"))
	assert.Nil(t, added)

	added = store.Save(testDevices("db1", "web2", "web3"))
	assert.ElementsMatch(t, []string{"web2", "web3"}, deviceNames(added))

	// Removals are not reported, only additions.
	added = store.Save(testDevices("web2"))
	assert.Empty(t, added)
}

func TestSaveEmptyListStillWritesSnapshot(t *testing.T) {
	store := testStore(t)
	store.Save(nil)

	devices, ok := store.Load(false)
	assert.True(t, ok)
	assert.Empty(t, devices)
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "0 minute"},
		{time.Minute, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{90 * time.Second, "1 minute"},
		{time.Hour, "1 hour, 0 minute"},
		{2*time.Hour + 5*time.Minute, "2 hours, 5 minutes"},
		{24 * time.Hour, "1 day, 0 minute"},
		{50*time.Hour + 2*time.Minute, "2 days, 2 hours, 2 minutes"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(tt.age), "age %s", tt.age)
	}
}
