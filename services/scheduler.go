// services/scheduler.go
package services

import (
	"log"
	"time"

	"game-room-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartBlockScheduler activates scheduled tournament blocks once their
// start time passes and completes blocks past their end time. Rooms of a
// completed block keep running until they settle — the reaper owns that.
func (s *BlockService) StartBlockScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			res := s.DB.Model(&models.TournamentBlock{}).
				Where("status = ? AND start_time <= ?", models.BlockStatusScheduled, now).
				Update("status", models.BlockStatusActive)
			if res.Error != nil {
				log.Printf("[Scheduler] failed to activate blocks: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("[Scheduler] activated %d tournament block(s)", res.RowsAffected)
			}

			res = s.DB.Model(&models.TournamentBlock{}).
				Where("status = ? AND end_time IS NOT NULL AND end_time <= ?", models.BlockStatusActive, now).
				Update("status", models.BlockStatusCompleted)
			if res.Error != nil {
				log.Printf("[Scheduler] failed to complete blocks: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("[Scheduler] completed %d tournament block(s)", res.RowsAffected)
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return sched, nil
}
