package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PAPAMICA/wallix-ssh/internal/log"
	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

// Store persists the last-fetched device snapshot as a JSON file. The cache
// is always advisory: any read or parse failure is logged and treated as
// "no cache". There is no TTL; callers decide when to force a refresh.
type Store struct {
	path string
	now  func() time.Time
}

func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// snapshot is the on-disk format. The French field names are the historic
// wire format of the cache file and must not change.
type snapshot struct {
	Timestamp time.Time     `json:"timestamp"`
	Devices   []cacheDevice `json:"devices"`
}

type cacheDevice struct {
	Name        string   `json:"nom"`
	Host        string   `json:"hote"`
	Services    []string `json:"services"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

func toCacheDevice(d model.Device) cacheDevice {
	return cacheDevice{
		Name:        d.Name,
		Host:        d.Host,
		Services:    d.Services,
		Tags:        model.TagStrings(d.Tags),
		Description: d.Description,
	}
}

func (c cacheDevice) device() model.Device {
	var tags []model.Tag
	for _, t := range c.Tags {
		tags = append(tags, model.ParseTag(t))
	}
	return model.Device{
		Name:        c.Name,
		Host:        c.Host,
		Services:    c.Services,
		Tags:        tags,
		Description: c.Description,
	}
}

// Load returns the cached device list. The second return value is false
// when a refresh is forced, the file is absent, or the content does not
// parse; none of these are fatal.
func (s *Store) Load(forceRefresh bool) ([]model.Device, bool) {
	if forceRefresh {
		log.Info("Forcing cache refresh...")
		return nil, false
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("No cache found")
		} else {
			log.Error("Error loading cache", "error", err)
		}
		return nil, false
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error("Error loading cache", "error", err)
		return nil, false
	}

	log.Info("Cache found", "age", FormatAge(s.now().Sub(snap.Timestamp)))

	var devices []model.Device
	for _, d := range snap.Devices {
		devices = append(devices, d.device())
	}
	return devices, true
}

// Save overwrites the snapshot with the current timestamp and returns the
// devices present in the new list but absent from the previous snapshot
// (set difference by name). With no previous snapshot nothing is reported.
// Write failures are logged, never fatal.
func (s *Store) Save(devices []model.Device) []model.Device {
	previous := s.previousNames()

	snap := snapshot{Timestamp: s.now(), Devices: []cacheDevice{}}
	for _, d := range devices {
		snap.Devices = append(snap.Devices, toCacheDevice(d))
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Error("Error saving cache", "error", err)
		return nil
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		log.Error("Error saving cache", "error", err)
		return nil
	}
	log.Info("Cache saved", "machines", len(devices))

	if previous == nil {
		return nil
	}
	var added []model.Device
	for _, d := range devices {
		if _, ok := previous[d.Name]; !ok {
			added = append(added, d)
		}
	}
	return added
}

func (s *Store) previousNames() map[string]struct{} {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}
	names := make(map[string]struct{}, len(snap.Devices))
	for _, d := range snap.Devices {
		names[d.Name] = struct{}{}
	}
	return names
}

// FormatAge renders an elapsed duration as days, hours and minutes. Units
// that are zero are omitted, except minutes which always appear. Seconds
// are never shown.
func FormatAge(d time.Duration) string {
	totalMinutes := int(d / time.Minute)
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	days := totalMinutes / (24 * 60)
	hours := totalMinutes / 60 % 24
	minutes := totalMinutes % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%d %s, ", days, plural("day", days))
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%d %s, ", hours, plural("hour", hours))
	}
	fmt.Fprintf(&b, "%d %s", minutes, plural("minute", minutes))
	return b.String()
}

func plural(unit string, n int) string {
	if n > 1 {
		return unit + "s"
	}
	return unit
}
