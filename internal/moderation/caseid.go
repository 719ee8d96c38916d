package moderation

import (
	"math/rand"
	"strconv"

	"honestbox/backend/internal/config"
	"honestbox/backend/internal/storage"
)

// CaseAllocator draws random human-presentable case ids, preferring short
// ones and widening only when a width looks crowded. The store lookup is a
// probabilistic pre-filter, nothing more: concurrent draws of the same
// value are settled by the unique index on case_id at insert time.
type CaseAllocator struct {
	Storage storage.Storage
}

// NewCaseAllocator creates an allocator backed by the given store.
func NewCaseAllocator(s storage.Storage) *CaseAllocator {
	return &CaseAllocator{Storage: s}
}

// Allocate returns a case id not currently held by any ban. It starts at
// the minimum digit width and escalates after the per-width attempt budget
// runs out; past the maximum width it fails with ErrCaseIDExhausted.
func (a *CaseAllocator) Allocate() (string, error) {
	for digits := config.CaseIDMinDigits; digits <= config.CaseIDMaxDigits; digits++ {
		// No leading zero: draw from [10^(d-1), 10^d - 1].
		min := pow10(digits - 1)
		max := pow10(digits) - 1
		for i := 0; i < config.CaseIDAttemptsPerWidth; i++ {
			candidate := strconv.FormatInt(min+rand.Int63n(max-min+1), 10)
			existing, err := a.Storage.GetBanByCaseID(candidate)
			if err != nil {
				return "", err
			}
			if existing == nil {
				return candidate, nil
			}
		}
	}
	return "", ErrCaseIDExhausted
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
