package engine

import (
	"github.com/talgya/zone-brain/internal/config"
)

// queueExpiryTicks drops spawn queue entries whose agent never appeared.
const queueExpiryTicks = 1500

// QueuedSpawn is a production request the brain issued and is waiting on.
type QueuedSpawn struct {
	Handler    string `json:"handler"`
	Role       string `json:"role"`
	Assignment string `json:"assignment"`
	WorkZone   string `json:"work_zone"`
	Size       int    `json:"size"`
	Tick       uint64 `json:"tick"`
}

// ZoneRecord is the per-zone state that survives across ticks.
type ZoneRecord struct {
	Zone        string                 `json:"zone"`
	Overrides   config.ZoneOverride    `json:"overrides"`
	SpawnQueue  map[string]QueuedSpawn `json:"spawn_queue"`
	CreatedTick uint64                 `json:"created_tick"`
	UpdatedTick uint64                 `json:"updated_tick"`
}

// NewZoneRecord returns an initialized record for a zone.
func NewZoneRecord(zone string, tick uint64) *ZoneRecord {
	r := &ZoneRecord{Zone: zone, CreatedTick: tick, UpdatedTick: tick}
	r.Init()
	return r
}

// Init fills in missing collections. Safe to call any number of times.
func (r *ZoneRecord) Init() {
	if r.SpawnQueue == nil {
		r.SpawnQueue = make(map[string]QueuedSpawn)
	}
}

// Enqueue records an accepted production request.
func (r *ZoneRecord) Enqueue(handle string, q QueuedSpawn) {
	r.Init()
	r.SpawnQueue[handle] = q
	r.UpdatedTick = q.Tick
}

// Prune drops entries whose agent exists or that have expired, and returns
// how many were removed.
func (r *ZoneRecord) Prune(exists func(name string) bool, tick uint64) int {
	removed := 0
	for handle, q := range r.SpawnQueue {
		if exists(handle) || (tick > q.Tick && tick-q.Tick > queueExpiryTicks) {
			delete(r.SpawnQueue, handle)
			removed++
		}
	}
	if removed > 0 {
		r.UpdatedTick = tick
	}
	return removed
}

// RecordStore hands out persisted zone records.
type RecordStore interface {
	// Record returns the zone's record, creating and storing an initialized
	// one on first use. Repeated calls return equivalent records.
	Record(zone string, tick uint64) (*ZoneRecord, error)
}

// MemoryRecords is a RecordStore that keeps records for the process lifetime.
type MemoryRecords map[string]*ZoneRecord

// Record implements RecordStore.
func (m MemoryRecords) Record(zone string, tick uint64) (*ZoneRecord, error) {
	if r, ok := m[zone]; ok {
		r.Init()
		return r, nil
	}
	r := NewZoneRecord(zone, tick)
	m[zone] = r
	return r, nil
}
