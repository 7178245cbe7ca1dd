package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	"github.com/smallbiznis/cyberdesk/internal/clock"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Record{}))
	return db
}

func TestCodec_RoundTripBothFormats(t *testing.T) {
	in := []sessiondomain.Session{{ID: "SESS-1", Type: sessiondomain.TypeCyber, DurationMinutes: 30}}

	for _, codec := range []Codec{{Compress: false}, {Compress: true}} {
		payload, err := codec.Encode(in)
		require.NoError(t, err)

		var out []sessiondomain.Session
		require.NoError(t, codec.Decode(payload, &out))
		assert.Equal(t, in, out, codec.Name())
	}
}

func TestCodec_AcceptsUnframedJSONAndRejectsGarbage(t *testing.T) {
	var out []sessiondomain.Session
	require.NoError(t, Codec{}.Decode([]byte(`[{"id":"SESS-9","durationMinutes":5}]`), &out))
	assert.Equal(t, "SESS-9", out[0].ID)

	assert.ErrorIs(t, Codec{}.Decode(nil, &out), ErrCorrupt)
	assert.ErrorIs(t, Codec{}.Decode([]byte("s\x00\xff"), &out), ErrCorrupt)
	assert.ErrorIs(t, Codec{}.Decode([]byte("j{not json"), &out), ErrCorrupt)
}

func TestGormKV_PutOverwrites(t *testing.T) {
	db := newTestDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	kv := NewGormKV(db, clk, "lounge")
	ctx := context.Background()

	_, err := kv.Get(ctx, KeyOrders)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, KeyOrders, []byte("first"), Meta{"count": 1}))
	clk.Advance(time.Minute)
	require.NoError(t, kv.Put(ctx, KeyOrders, []byte("second"), Meta{"count": 2}))

	got, err := kv.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	var count int64
	require.NoError(t, db.Model(&Record{}).Where("record_key = ?", "lounge:orders").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = kv.Get(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestStateStore_LoadDefaultsWhenEmpty(t *testing.T) {
	db := newTestDB(t)
	state := NewStateStore(NewGormKV(db, clock.NewSystemClock(), ""), Codec{Compress: true}, zap.NewNop())

	snapshot := state.Load(context.Background())
	assert.Equal(t, businessdomain.Default(), snapshot.Business)
	assert.Empty(t, snapshot.Sessions)
	assert.Empty(t, snapshot.Transactions)
}

func TestStateStore_SaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	state := NewStateStore(NewGormKV(db, clock.NewSystemClock(), "cyberdesk"), Codec{Compress: true}, zap.NewNop())
	ctx := context.Background()

	business := businessdomain.Default()
	business.Name = "Cyber Tana"
	business.IsConfigured = true
	require.NoError(t, state.SaveBusiness(ctx, business))
	require.NoError(t, state.SaveTransactions(ctx, []ledgerdomain.Transaction{
		{ID: "TX-1", Amount: 3000, Type: ledgerdomain.TransactionTypeIncome},
		{ID: "TX-2", Amount: 500, Type: ledgerdomain.TransactionTypeIncome},
	}))

	snapshot := state.Load(ctx)
	assert.Equal(t, "Cyber Tana", snapshot.Business.Name)
	assert.True(t, snapshot.Business.IsConfigured)
	require.Len(t, snapshot.Transactions, 2)
	assert.Equal(t, "TX-1", snapshot.Transactions[0].ID)
}

func TestStateStore_CorruptCollectionFallsBackIndependently(t *testing.T) {
	db := newTestDB(t)
	kv := NewGormKV(db, clock.NewSystemClock(), "")
	state := NewStateStore(kv, Codec{}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, state.SaveSessions(ctx, []sessiondomain.Session{{ID: "SESS-1"}}))
	require.NoError(t, kv.Put(ctx, KeyBusiness, []byte("j{broken"), nil))
	require.NoError(t, kv.Put(ctx, KeyOrders, []byte(`{"not":"a list"}`), nil))

	snapshot := state.Load(ctx)
	assert.Equal(t, businessdomain.Default(), snapshot.Business)
	assert.Nil(t, snapshot.Orders)
	require.Len(t, snapshot.Sessions, 1)
}

func TestStateStore_NormalizesStoredBusiness(t *testing.T) {
	db := newTestDB(t)
	kv := NewGormKV(db, clock.NewSystemClock(), "")
	state := NewStateStore(kv, Codec{}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, KeyBusiness, []byte(`{"name":"Old","currency":"Ar","cyberPricePerMin":0}`), nil))

	business := state.Load(ctx).Business
	assert.Equal(t, "Old", business.Name)
	assert.Equal(t, businessdomain.CurrencyMGA, business.Currency)
	assert.Equal(t, int64(100), business.CyberPricePerMin)
	assert.Equal(t, int64(200), business.GamePricePerMin)
}

type fakeRedis struct {
	values map[string][]byte
	err    error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(value), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = v
	case string:
		f.values[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func TestRedisKV_GetPut(t *testing.T) {
	client := &fakeRedis{values: map[string][]byte{}}
	kv := NewRedisKV(client, "lounge")
	ctx := context.Background()

	_, err := kv.Get(ctx, KeySessions)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, KeySessions, []byte("payload"), Meta{"count": 3}))
	got, err := kv.Get(ctx, KeySessions)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
	assert.JSONEq(t, `{"count":3}`, string(client.values["lounge:sessions:meta"]))

	client.err = errors.New("connection refused")
	_, err = kv.Get(ctx, KeySessions)
	assert.EqualError(t, err, "connection refused")
}
