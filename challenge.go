package authkit

import (
	"context"
	"crypto/subtle"
	"hash/fnv"
	"sync"
	"time"

	"github.com/edusuite/authkit/internal"
)

// ChallengeStore keeps at most one pending one-time code per username.
// Issue overwrites any prior challenge for the key; Verify consumes the
// entry only on a correct code (or on expiry / a spent attempt budget).
// Implementations must make Issue and Verify atomic per username under
// concurrent callers.
type ChallengeStore interface {
	Issue(ctx context.Context, username string) (string, error)
	Verify(ctx context.Context, username, code string) (bool, error)
}

const challengeShardCount = 16

type challengeEntry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

type challengeShard struct {
	mu      sync.Mutex
	entries map[string]*challengeEntry
}

// MemoryChallengeStore is the in-process [ChallengeStore]. State is
// sharded by username hash so concurrent logins for different users
// never contend on one lock; operations on the same username are
// serialized by the owning shard.
type MemoryChallengeStore struct {
	cfg    ChallengeConfig
	now    func() time.Time
	shards [challengeShardCount]challengeShard
}

// NewMemoryChallengeStore creates a memory-backed store with the given
// TTL and attempt policy.
func NewMemoryChallengeStore(cfg ChallengeConfig) *MemoryChallengeStore {
	s := &MemoryChallengeStore{cfg: cfg, now: time.Now}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*challengeEntry)
	}
	return s
}

func (s *MemoryChallengeStore) shard(username string) *challengeShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return &s.shards[h.Sum32()%challengeShardCount]
}

// Issue generates a fresh 6-digit code for username and stores it with
// the configured TTL, replacing any prior entry for that username.
func (s *MemoryChallengeStore) Issue(_ context.Context, username string) (string, error) {
	code, err := internal.NewCode()
	if err != nil {
		return "", err
	}

	shard := s.shard(username)
	shard.mu.Lock()
	shard.entries[username] = &challengeEntry{
		code:      code,
		expiresAt: s.now().Add(s.cfg.TTL),
	}
	shard.mu.Unlock()

	return code, nil
}

// Verify checks code against the pending challenge for username.
//
// A missing entry returns false. An expired entry is evicted and
// returns false; eviction is lazy, there is no background sweep. A
// correct code removes the entry and returns true (single-use). A wrong
// code leaves the entry in place so the user can retry until expiry —
// unless MaxAttempts is set and the budget is spent, in which case the
// entry is removed and [ErrCodeAttemptsExceeded] is returned.
func (s *MemoryChallengeStore) Verify(_ context.Context, username, code string) (bool, error) {
	shard := s.shard(username)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[username]
	if !ok {
		return false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(shard.entries, username)
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) == 1 {
		delete(shard.entries, username)
		return true, nil
	}

	entry.attempts++
	if s.cfg.MaxAttempts > 0 && entry.attempts >= s.cfg.MaxAttempts {
		delete(shard.entries, username)
		return false, ErrCodeAttemptsExceeded
	}
	return false, nil
}
