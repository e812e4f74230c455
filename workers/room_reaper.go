package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"game-room-system/models"
	"game-room-system/services"

	"gorm.io/gorm"
)

const (
	DefaultReapInterval = 3 * time.Minute
	DefaultStaleness    = 30 * time.Minute
)

// RoomReaper force-settles rooms that filled up but never reached score
// quorum. It runs as an injectable loop with its own context so tests
// can start and stop it deterministically, and can also be driven one
// tick at a time via Sweep.
type RoomReaper struct {
	DB         *gorm.DB
	Settlement *services.SettlementService
	Interval   time.Duration
	Staleness  time.Duration

	mu          sync.Mutex
	lastRunAt   time.Time // observability only
}

func NewRoomReaper(db *gorm.DB, settlement *services.SettlementService) *RoomReaper {
	return &RoomReaper{
		DB:         db,
		Settlement: settlement,
		Interval:   DefaultReapInterval,
		Staleness:  DefaultStaleness,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (r *RoomReaper) Run(ctx context.Context) {
	log.Printf("Starting room reaper (interval %s, staleness %s)...", r.Interval, r.Staleness)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Room reaper stopped.")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				log.Printf("Room reaper sweep failed: %v", err)
			}
		}
	}
}

// Sweep settles every full, unreleased room whose start time is past the
// staleness threshold. A failure on one room is logged and does not stop
// the sweep of the others.
func (r *RoomReaper) Sweep(ctx context.Context) error {
	r.mu.Lock()
	r.lastRunAt = time.Now()
	r.mu.Unlock()

	cutoff := time.Now().Add(-r.Staleness)

	var rooms []models.Room
	if err := r.DB.
		Where("released = ? AND current_players >= max_players AND start_time < ?", false, cutoff).
		Order("id ASC").
		Find(&rooms).Error; err != nil {
		return err
	}

	for _, room := range rooms {
		result, err := r.Settlement.Settle(ctx, room.ID, services.PolicyTimeout)
		if err != nil {
			log.Printf("❌ Reaper failed to settle room %d: %v", room.ID, err)
			continue
		}
		if result.AlreadySettled {
			// A final score submission beat us to it — fine either way.
			continue
		}
		log.Printf("✅ Reaper closed room %d, winner %s (score %d)", room.ID, result.WinnerUserID, result.WinnerScore)
	}
	return nil
}

// LastRunAt reports when the most recent sweep started.
func (r *RoomReaper) LastRunAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRunAt
}
