// services/score_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"game-room-system/models"
)

func TestRecordScoreUnknownSeat(t *testing.T) {
	db, _, rooms, scores, _ := newServices(t)
	blockID := createBlock(t, db, models.CurrencyTypeAds, 2, 0, 10)
	ctx := context.Background()

	res, err := rooms.AllocateSeat(ctx, "user-1", "Alice", blockID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	_, err = scores.RecordScore(ctx, "stranger", res.Room.ID, 50)
	if !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("expected ErrSeatNotFound, got %v", err)
	}
}

func TestRecordScoreWaitsForPlayers(t *testing.T) {
	db, _, rooms, scores, _ := newServices(t)
	blockID := createBlock(t, db, models.CurrencyTypeAds, 3, 0, 10)
	ctx := context.Background()

	res, err := rooms.AllocateSeat(ctx, "user-1", "Alice", blockID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	outcome, err := scores.RecordScore(ctx, "user-1", res.Room.ID, 42)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.Status != StatusWaitingForPlayers {
		t.Fatalf("expected waiting_for_players, got %s", outcome.Status)
	}

	var seat models.RoomParticipant
	if err := db.First(&seat, "user_id = ? AND room_id = ?", "user-1", res.Room.ID).Error; err != nil {
		t.Fatalf("failed to load seat: %v", err)
	}
	if seat.Score != 42 || !seat.ScoreSubmitted {
		t.Fatalf("score not recorded: %+v", seat)
	}
}

func TestRecordScoreWaitsForRemainingScores(t *testing.T) {
	db, _, rooms, scores, _ := newServices(t)
	blockID := createBlock(t, db, models.CurrencyTypeAds, 2, 0, 10)
	ctx := context.Background()

	res, err := rooms.AllocateSeat(ctx, "user-1", "Alice", blockID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := rooms.AllocateSeat(ctx, "user-2", "Bob", blockID); err != nil {
		t.Fatalf("second join failed: %v", err)
	}

	outcome, err := scores.RecordScore(ctx, "user-1", res.Room.ID, 42)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.Status != StatusWaitingForScores {
		t.Fatalf("expected waiting_for_scores, got %s", outcome.Status)
	}
	if outcome.Pending != 1 {
		t.Fatalf("expected 1 pending player, got %d", outcome.Pending)
	}
}

func TestRecordScoreOverwritesEarlierSubmission(t *testing.T) {
	db, _, rooms, scores, _ := newServices(t)
	blockID := createBlock(t, db, models.CurrencyTypeAds, 2, 0, 10)
	ctx := context.Background()

	res, err := rooms.AllocateSeat(ctx, "user-1", "Alice", blockID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := rooms.AllocateSeat(ctx, "user-2", "Bob", blockID); err != nil {
		t.Fatalf("second join failed: %v", err)
	}

	if _, err := scores.RecordScore(ctx, "user-1", res.Room.ID, 10); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := scores.RecordScore(ctx, "user-1", res.Room.ID, 99); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}

	var seat models.RoomParticipant
	if err := db.First(&seat, "user_id = ? AND room_id = ?", "user-1", res.Room.ID).Error; err != nil {
		t.Fatalf("failed to load seat: %v", err)
	}
	if seat.Score != 99 {
		t.Fatalf("resubmission must overwrite, got score %d", seat.Score)
	}
}

func TestRecordScoreQuorumSettlesRoom(t *testing.T) {
	db, ledger, rooms, scores, _ := newServices(t)
	blockID := createBlock(t, db, models.CurrencyTypeAds, 2, 0, 25)
	ctx := context.Background()

	res, err := rooms.AllocateSeat(ctx, "user-1", "Alice", blockID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := rooms.AllocateSeat(ctx, "user-2", "Bob", blockID); err != nil {
		t.Fatalf("second join failed: %v", err)
	}

	if _, err := scores.RecordScore(ctx, "user-1", res.Room.ID, 10); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	outcome, err := scores.RecordScore(ctx, "user-2", res.Room.ID, 30)
	if err != nil {
		t.Fatalf("final submit failed: %v", err)
	}

	if outcome.Status != StatusSettled {
		t.Fatalf("expected settled, got %s", outcome.Status)
	}
	if outcome.Settlement.WinnerUserID != "user-2" {
		t.Fatalf("expected user-2 to win, got %s", outcome.Settlement.WinnerUserID)
	}
	if outcome.Settlement.Reward == nil || outcome.Settlement.Reward.Reason != models.RewardReasonWin {
		t.Fatalf("expected a win reward, got %+v", outcome.Settlement.Reward)
	}

	var room models.Room
	db.First(&room, res.Room.ID)
	if !room.Released || room.ReleaseTime == nil {
		t.Fatalf("settled room must be released with a timestamp: %+v", room)
	}

	credits := ledger.Credits()
	if len(credits) != 1 {
		t.Fatalf("expected exactly one winner credit, got %d", len(credits))
	}
	if credits[0].UserID != "user-2" || credits[0].Amount != 25 || credits[0].Reason != TxReasonGameWinReward {
		t.Fatalf("unexpected credit: %+v", credits[0])
	}
}

func TestRecordScoreAfterReleaseIsNoOp(t *testing.T) {
	db, ledger, rooms, scores, _ := newServices(t)
	blockID := createBlock(t, db, models.CurrencyTypeAds, 2, 0, 25)
	ctx := context.Background()

	res, err := rooms.AllocateSeat(ctx, "user-1", "Alice", blockID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := rooms.AllocateSeat(ctx, "user-2", "Bob", blockID); err != nil {
		t.Fatalf("second join failed: %v", err)
	}
	if _, err := scores.RecordScore(ctx, "user-1", res.Room.ID, 10); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := scores.RecordScore(ctx, "user-2", res.Room.ID, 30); err != nil {
		t.Fatalf("settling submit failed: %v", err)
	}

	// A late resubmission from the loser must not reopen anything.
	outcome, err := scores.RecordScore(ctx, "user-1", res.Room.ID, 1000)
	if err != nil {
		t.Fatalf("late submit errored: %v", err)
	}
	if outcome.Status != StatusAlreadyClosed {
		t.Fatalf("expected already_closed, got %s", outcome.Status)
	}

	var rewards int64
	db.Model(&models.RewardRecord{}).Where("room_id = ?", res.Room.ID).Count(&rewards)
	if rewards != 1 {
		t.Fatalf("late submission must not create a second reward, got %d", rewards)
	}
	if len(ledger.Credits()) != 1 {
		t.Fatalf("late submission must not trigger a second credit, got %d", len(ledger.Credits()))
	}
}
