package server

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/StoreStation/limbogate/pkg/protocol"
	"github.com/StoreStation/limbogate/pkg/world"
)

// newPlayerChanCapacity is the new-player channel's bound: a bounded
// multi-producer single-consumer queue feeding the tick loop.
const newPlayerChanCapacity = 16

// RegistryCache is the startup-computed blob of registry-data packets plus
// the two ids the world preprocessor needs.
type RegistryCache struct {
	RegistryDataBody []byte
	TagsBody         []byte
	EndDimensionID   int32
	EndBiomeID       int32
}

// WorldCache is the two read-only tables the world preprocessor builds
// once at startup.
type WorldCache struct {
	Chunks     []protocol.ChunkDataUpdateLightC
	Containers map[world.BlockPos]world.Container
}

// State is the process-wide shared state: immutable after NewState
// returns, except for the atomic player counter and the connection-id/
// teleport-id generators it also owns.
type State struct {
	Config   Config
	Registry *protocol.Registry
	Blobs    RegistryCache
	World    WorldCache
	Metrics  *Metrics
	Log      *slog.Logger

	// Admission caps concurrent connections at Config.MaxPlayers.
	Admission *semaphore.Weighted

	// NewPlayers is read exclusively by the tick loop; a connection
	// publishes itself here exactly once, on reaching Play.
	NewPlayers chan *Connection

	playersOnline  atomic.Int64
	nextConnID     atomic.Uint32 // wraps into uint16
	nextTeleportID atomic.Int32
}

// NewState constructs the shared state for one server run.
func NewState(cfg Config, reg *protocol.Registry, regCache RegistryCache, worldCache WorldCache, metrics *Metrics, log *slog.Logger) *State {
	return &State{
		Config:     cfg,
		Registry:   reg,
		Blobs:      regCache,
		World:      worldCache,
		Metrics:    metrics,
		Log:        log,
		Admission:  semaphore.NewWeighted(int64(cfg.MaxPlayers)),
		NewPlayers: make(chan *Connection, newPlayerChanCapacity),
	}
}

// NextConnectionID returns the next wrapping u16 connection id.
func (s *State) NextConnectionID() uint16 {
	return uint16(s.nextConnID.Add(1))
}

// NextTeleportID draws the next value from the process-wide monotonic
// teleport-id counter.
func (s *State) NextTeleportID() int32 {
	return s.nextTeleportID.Add(1)
}

// PlayersOnline returns the current live-player count, kept in sync by the
// tick loop's insert/evict bookkeeping.
func (s *State) PlayersOnline() int64 {
	return s.playersOnline.Load()
}

func (s *State) incPlayers() {
	n := s.playersOnline.Add(1)
	if s.Metrics != nil {
		s.Metrics.PlayersOnline.Set(float64(n))
	}
}

func (s *State) decPlayers() {
	n := s.playersOnline.Add(-1)
	if s.Metrics != nil {
		s.Metrics.PlayersOnline.Set(float64(n))
	}
}
