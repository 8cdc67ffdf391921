package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/example/keystore/models"
	"github.com/example/keystore/store"
)

var (
	ErrHoursOutOfRange  = errors.New("hours out of range")
	ErrExpiryOutOfRange = errors.New("expiry out of range")
)

// maxHours is the largest magnitude representable as a time.Duration.
var maxHours = float64(math.MaxInt64) / float64(time.Hour)

type KeyService struct {
	Store    store.Store
	KeyBytes int
	Now      func() time.Time
	Rand     io.Reader
}

func NewKeyService(s store.Store, keyBytes int) *KeyService {
	return &KeyService{
		Store:    s,
		KeyBytes: keyBytes,
		Now:      time.Now,
		Rand:     rand.Reader,
	}
}

type CreateParams struct {
	Hours float64
	IP    string
	Note  string
}

type VerifyStatus int

const (
	StatusValid VerifyStatus = iota
	StatusNotFound
	StatusExpired
)

type VerifyResult struct {
	Status    VerifyStatus
	HoursLeft int64
	Record    models.KeyRecord
}

func (r VerifyResult) Valid() bool { return r.Status == StatusValid }

// HoursDuration converts a possibly fractional, possibly negative hour count.
func HoursDuration(hours float64) (time.Duration, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || math.Abs(hours) >= maxHours {
		return 0, fmt.Errorf("%w: %v", ErrHoursOutOfRange, hours)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}

// GenerateKey reads n random bytes and renders them as uppercase hex.
func GenerateKey(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// formatExpiry rejects instants outside years 0-9999, which the stored
// ISO-8601 form cannot represent.
func formatExpiry(t time.Time) (string, error) {
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return "", fmt.Errorf("%w: year %d", ErrExpiryOutOfRange, y)
	}
	return models.FormatTime(t), nil
}

func (s *KeyService) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

func (s *KeyService) Create(ctx context.Context, p CreateParams) (models.KeyRecord, error) {
	d, err := HoursDuration(p.Hours)
	if err != nil {
		return models.KeyRecord{}, err
	}
	key, err := GenerateKey(s.Rand, s.KeyBytes)
	if err != nil {
		return models.KeyRecord{}, err
	}

	now := s.now()
	expiresAt, err := formatExpiry(now.Add(d))
	if err != nil {
		return models.KeyRecord{}, err
	}
	record := models.KeyRecord{
		Key:       key,
		CreatedAt: models.FormatTime(now),
		ExpiresAt: expiresAt,
		IP:        models.OptionalString(p.IP),
		Note:      models.OptionalString(p.Note),
	}

	err = s.Store.Update(ctx, func(records []models.KeyRecord) ([]models.KeyRecord, bool, error) {
		return append(records, record), true, nil
	})
	if err != nil {
		return models.KeyRecord{}, err
	}
	return record, nil
}

func (s *KeyService) List(ctx context.Context) ([]models.KeyRecord, error) {
	return s.Store.Load(ctx)
}

// Verify reports whether key exists and has not expired. A key whose expiry
// equals the current instant is still valid. HoursLeft saturates at about
// 2562047 hours, the longest time.Duration.
func (s *KeyService) Verify(ctx context.Context, key string) (VerifyResult, error) {
	records, err := s.Store.Load(ctx)
	if err != nil {
		return VerifyResult{}, err
	}

	i := indexOf(records, key)
	if i < 0 {
		return VerifyResult{Status: StatusNotFound}, nil
	}
	found := records[i]

	expires, err := found.Expiry()
	if err != nil {
		return VerifyResult{}, err
	}
	now := s.now()
	if now.After(expires) {
		return VerifyResult{Status: StatusExpired, Record: found}, nil
	}

	return VerifyResult{
		Status:    StatusValid,
		HoursLeft: int64(expires.Sub(now) / time.Hour),
		Record:    found,
	}, nil
}

// Extend moves the expiry of key by hours relative to its current expiry,
// so an expired key can be revived and negative hours shorten it. It reports
// whether the key was found.
func (s *KeyService) Extend(ctx context.Context, key string, hours float64) (bool, error) {
	d, err := HoursDuration(hours)
	if err != nil {
		return false, err
	}

	found := false
	err = s.Store.Update(ctx, func(records []models.KeyRecord) ([]models.KeyRecord, bool, error) {
		i := indexOf(records, key)
		if i < 0 {
			return nil, false, nil
		}
		expires, err := records[i].Expiry()
		if err != nil {
			return nil, false, err
		}
		next, err := formatExpiry(expires.Add(d))
		if err != nil {
			return nil, false, err
		}
		records[i].ExpiresAt = next
		found = true
		return records, true, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes every record matching key and returns how many were removed.
func (s *KeyService) Delete(ctx context.Context, key string) (int, error) {
	removed := 0
	err := s.Store.Update(ctx, func(records []models.KeyRecord) ([]models.KeyRecord, bool, error) {
		kept := make([]models.KeyRecord, 0, len(records))
		for _, r := range records {
			if r.Key == key {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, true, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func indexOf(records []models.KeyRecord, key string) int {
	for i, r := range records {
		if r.Key == key {
			return i
		}
	}
	return -1
}
