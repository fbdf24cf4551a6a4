package authkit

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edusuite/authkit/internal"
)

const (
	challengeKeyPrefix      = "tfc"
	challengeRecordVersion1 = 1
)

type challengeRecord struct {
	Code      string
	ExpiresAt int64
	Attempts  uint16
}

// RedisChallengeStore is the distributed [ChallengeStore] for
// multi-instance deployments. Records live under "tfc:<username>" with
// a Redis TTL matching the challenge TTL; verification runs inside a
// WATCH transaction so a concurrent Issue and Verify on the same
// username see either the old or the new entry, never a torn state.
type RedisChallengeStore struct {
	cfg   ChallengeConfig
	redis *redis.Client
}

// NewRedisChallengeStore creates a Redis-backed store with the given
// TTL and attempt policy.
func NewRedisChallengeStore(client *redis.Client, cfg ChallengeConfig) *RedisChallengeStore {
	return &RedisChallengeStore{cfg: cfg, redis: client}
}

func (s *RedisChallengeStore) key(username string) string {
	return challengeKeyPrefix + ":" + username
}

// Issue generates a fresh code for username and stores it, replacing
// any prior entry. Last writer wins under concurrent issuance.
func (s *RedisChallengeStore) Issue(ctx context.Context, username string) (string, error) {
	code, err := internal.NewCode()
	if err != nil {
		return "", err
	}

	record := &challengeRecord{
		Code:      code,
		ExpiresAt: time.Now().Add(s.cfg.TTL).Unix(),
	}
	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, s.key(username), encoded, s.cfg.TTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	return code, nil
}

// Verify applies the same consumption rule as the memory store: a
// correct code deletes the entry and returns true, a wrong code leaves
// it in place (bounded by MaxAttempts when configured), and expired
// entries are evicted on lookup.
func (s *RedisChallengeStore) Verify(ctx context.Context, username, code string) (bool, error) {
	const maxRetries = 4
	key := s.key(username)

	for i := 0; i < maxRetries; i++ {
		var matched bool
		var exceeded bool

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeChallengeRecord(data)
			if err != nil {
				return err
			}
			if time.Now().Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) == 1 {
				matched = true
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			record.Attempts++
			if s.cfg.MaxAttempts > 0 && int(record.Attempts) >= s.cfg.MaxAttempts {
				exceeded = true
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			ttl := time.Until(time.Unix(record.ExpiresAt, 0))
			if ttl <= 0 {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			updated, err := encodeChallengeRecord(record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
		}
		if exceeded {
			return false, ErrCodeAttemptsExceeded
		}
		return matched, nil
	}

	return false, fmt.Errorf("%w: transaction retries exhausted", ErrChallengeUnavailable)
}

func encodeChallengeRecord(record *challengeRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.Code) > 255 {
		return nil, errors.New("challenge code length exceeded")
	}
	buf.WriteByte(byte(len(record.Code)))
	buf.WriteString(record.Code)

	return buf.Bytes(), nil
}

func decodeChallengeRecord(data []byte) (*challengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersion1 {
		return nil, errors.New("invalid challenge record version")
	}

	record := &challengeRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	codeLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(reader, code); err != nil {
		return nil, err
	}
	record.Code = string(code)

	return record, nil
}
