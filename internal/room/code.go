package room

import (
	"context"
	"fmt"
	"math/rand/v2"
)

const (
	codeMin = 100000
	codeMax = 999999

	// maxCodeAttempts bounds the allocation loop so a pathological store
	// state cannot spin it forever.
	maxCodeAttempts = 20
)

// randomRoomCode returns a uniformly random six-digit code.
func randomRoomCode() int {
	return codeMin + rand.IntN(codeMax-codeMin+1)
}

// generateUniqueRoomCode picks random codes and probes the store until
// it finds a free one. The probe is best-effort: the unique index on
// room_code is what actually guarantees uniqueness, the probe just
// keeps insert conflicts rare.
func (s *Service) generateUniqueRoomCode(ctx context.Context) (int, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := randomRoomCode()

		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("failed to check room code: %w", err)
		}
		if !exists {
			return code, nil
		}

		s.log.Debug("room code collision, retrying",
			"room_code", code,
			"attempt", attempt)
	}

	return 0, ErrCodeAllocationExhausted
}
