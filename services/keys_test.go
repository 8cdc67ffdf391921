package services

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/keystore/models"
	"github.com/example/keystore/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*KeyService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewKeyService(store.NewMemoryStore(), 16)
	svc.Now = clock.Now
	return svc, clock
}

var keyPattern = regexp.MustCompile(`^[0-9A-F]{32}$`)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey(bytes.NewReader(bytes.Repeat([]byte{0xab}, 16)), 16)
	require.NoError(t, err)
	assert.Equal(t, "ABABABABABABABABABABABABABABABAB", key)

	_, err = GenerateKey(bytes.NewReader([]byte{1, 2}), 16)
	assert.Error(t, err)
}

func TestHoursDuration(t *testing.T) {
	d, err := HoursDuration(1.5)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	d, err = HoursDuration(-2)
	require.NoError(t, err)
	assert.Equal(t, -2*time.Hour, d)

	_, err = HoursDuration(1e12)
	assert.ErrorIs(t, err, ErrHoursOutOfRange)
}

func TestCreateThenVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateParams{Hours: 24, IP: "10.0.0.1", Note: "ci"})
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, rec.Key)
	assert.Equal(t, "2026-03-01T12:00:00.000Z", rec.CreatedAt)
	assert.Equal(t, "2026-03-02T12:00:00.000Z", rec.ExpiresAt)

	res, err := svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, int64(24), res.HoursLeft)
	require.NotNil(t, res.Record.IP)
	assert.Equal(t, "10.0.0.1", *res.Record.IP)
	assert.Equal(t, "ci", *res.Record.Note)
}

func TestCreateWithoutOptionalFields(t *testing.T) {
	svc, _ := newTestService(t)

	rec, err := svc.Create(context.Background(), CreateParams{Hours: 1})
	require.NoError(t, err)
	assert.Nil(t, rec.IP)
	assert.Nil(t, rec.Note)
}

func TestVerifyRoundsDown(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateParams{Hours: 1})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	res, err := svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, int64(0), res.HoursLeft)
}

func TestVerifyExpiry(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateParams{Hours: 1})
	require.NoError(t, err)

	// Expiring exactly now is still valid.
	clock.Advance(time.Hour)
	res, err := svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.True(t, res.Valid())

	clock.Advance(time.Millisecond)
	res, err = svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, res.Status)
}

func TestVerifyUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Verify(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)
	assert.False(t, res.Valid())
}

func TestVerifyUnparseableExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Store = store.NewMemoryStore(models.KeyRecord{Key: "K", ExpiresAt: "soon"})

	_, err := svc.Verify(context.Background(), "K")
	assert.ErrorContains(t, err, "invalid expiresAt")
}

func TestExtendIsRelativeToPriorExpiry(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateParams{Hours: 1})
	require.NoError(t, err)

	// Let it expire, then extend: the new window starts at the old expiry.
	clock.Advance(3 * time.Hour)
	found, err := svc.Extend(ctx, rec.Key, 2)
	require.NoError(t, err)
	assert.True(t, found)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-03-01T15:00:00.000Z", records[0].ExpiresAt)

	res, err := svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, int64(0), res.HoursLeft)
}

func TestExtendNegativeShortens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateParams{Hours: 5})
	require.NoError(t, err)

	found, err := svc.Extend(ctx, rec.Key, -6)
	require.NoError(t, err)
	assert.True(t, found)

	res, err := svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, res.Status)
}

func TestExtendUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	found, err := svc.Extend(context.Background(), "NOPE", 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteThenVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateParams{Hours: 1})
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	res, err := svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)

	removed, err = svc.Delete(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestDeleteRemovesDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Store = store.NewMemoryStore(
		models.KeyRecord{Key: "A"},
		models.KeyRecord{Key: "B"},
		models.KeyRecord{Key: "A"},
	)

	removed, err := svc.Delete(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	records, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.KeyRecord{{Key: "B"}}, records)
}

func TestListCountsAfterCreatesAndDeletes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var keys []string
	for i := 0; i < 5; i++ {
		rec, err := svc.Create(ctx, CreateParams{Hours: float64(i + 1)})
		require.NoError(t, err)
		keys = append(keys, rec.Key)
	}
	for _, k := range keys[:2] {
		_, err := svc.Delete(ctx, k)
		require.NoError(t, err)
	}

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, keys[i+2], r.Key, "insertion order")
	}
}

type failingStore struct{ store.MemoryStore }

var errDisk = errors.New("disk on fire")

func (*failingStore) Update(context.Context, store.UpdateFunc) error { return errDisk }

func TestCreateStoreFailure(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Store = &failingStore{}

	_, err := svc.Create(context.Background(), CreateParams{Hours: 1})
	assert.ErrorIs(t, err, errDisk)
}

func TestExtendPastYear9999IsRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateParams{Hours: 2e6})
	require.NoError(t, err)

	var extendErr error
	for i := 0; i < 50 && extendErr == nil; i++ {
		_, extendErr = svc.Extend(ctx, rec.Key, 2e6)
	}
	require.ErrorIs(t, extendErr, ErrExpiryOutOfRange)

	// The last accepted expiry is still readable.
	records, err := svc.List(ctx)
	require.NoError(t, err)
	exp, err := records[0].Expiry()
	require.NoError(t, err)
	assert.LessOrEqual(t, exp.Year(), 9999)

	res, err := svc.Verify(ctx, rec.Key)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Equal(t, int64(math.MaxInt64/int64(time.Hour)), res.HoursLeft, "saturates at the longest duration")

	found, err := svc.Extend(ctx, rec.Key, -1)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCreatePastYear9999IsRejected(t *testing.T) {
	svc, clock := newTestService(t)
	clock.t = time.Date(9990, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), CreateParams{Hours: 2e6})
	assert.ErrorIs(t, err, ErrExpiryOutOfRange)

	records, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLifecycleOnPersistentStores(t *testing.T) {
	sqliteStore, err := store.NewSQLiteStore("file:TestLifecycleOnPersistentStores?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	backends := map[string]store.Store{
		"file":   store.NewFileStore(filepath.Join(t.TempDir(), "keys.json")),
		"sqlite": sqliteStore,
	}
	for name, s := range backends {
		svc, clock := newTestService(t)
		svc.Store = s
		ctx := context.Background()

		rec, err := svc.Create(ctx, CreateParams{Hours: 1, IP: "10.0.0.1"})
		require.NoError(t, err, name)
		other, err := svc.Create(ctx, CreateParams{Hours: 5})
		require.NoError(t, err, name)

		clock.Advance(2 * time.Hour)
		res, err := svc.Verify(ctx, rec.Key)
		require.NoError(t, err, name)
		assert.Equal(t, StatusExpired, res.Status, name)

		found, err := svc.Extend(ctx, rec.Key, 2)
		require.NoError(t, err, name)
		assert.True(t, found, name)

		res, err = svc.Verify(ctx, rec.Key)
		require.NoError(t, err, name)
		assert.True(t, res.Valid(), name)
		assert.Equal(t, int64(1), res.HoursLeft, name)
		require.NotNil(t, res.Record.IP, name)
		assert.Equal(t, "10.0.0.1", *res.Record.IP, name)

		removed, err := svc.Delete(ctx, rec.Key)
		require.NoError(t, err, name)
		assert.Equal(t, 1, removed, name)

		records, err := svc.List(ctx)
		require.NoError(t, err, name)
		require.Len(t, records, 1, name)
		assert.Equal(t, other.Key, records[0].Key, name)
	}
}
