package store

import (
	"context"
	"errors"

	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/cyberdesk/internal/order/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	subscriptiondomain "github.com/smallbiznis/cyberdesk/internal/subscription/domain"
	"go.uber.org/zap"
)

// Snapshot is the full desk state as persisted.
type Snapshot struct {
	Business      businessdomain.BusinessConfig
	Sessions      []sessiondomain.Session
	Subscriptions []subscriptiondomain.Subscription
	Orders        []orderdomain.Order
	Transactions  []ledgerdomain.Transaction
}

// StateStore maps entity collections onto a KV. Every collection loads
// independently and falls back to its default when absent or unreadable.
type StateStore struct {
	kv    KV
	codec Codec
	log   *zap.Logger
}

func NewStateStore(kv KV, codec Codec, log *zap.Logger) *StateStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &StateStore{kv: kv, codec: codec, log: log.Named("store.state")}
}

func (s *StateStore) Load(ctx context.Context) Snapshot {
	business := businessdomain.Default()
	if s.load(ctx, KeyBusiness, &business) {
		business = business.Normalize()
	} else {
		business = businessdomain.Default()
	}

	var snapshot Snapshot
	snapshot.Business = business
	if !s.load(ctx, KeySessions, &snapshot.Sessions) {
		snapshot.Sessions = nil
	}
	if !s.load(ctx, KeySubscriptions, &snapshot.Subscriptions) {
		snapshot.Subscriptions = nil
	}
	if !s.load(ctx, KeyOrders, &snapshot.Orders) {
		snapshot.Orders = nil
	}
	if !s.load(ctx, KeyTransactions, &snapshot.Transactions) {
		snapshot.Transactions = nil
	}
	return snapshot
}

func (s *StateStore) SaveBusiness(ctx context.Context, business businessdomain.BusinessConfig) error {
	return s.save(ctx, KeyBusiness, business, 1)
}

func (s *StateStore) SaveSessions(ctx context.Context, sessions []sessiondomain.Session) error {
	return s.save(ctx, KeySessions, nonNil(sessions), len(sessions))
}

func (s *StateStore) SaveSubscriptions(ctx context.Context, subs []subscriptiondomain.Subscription) error {
	return s.save(ctx, KeySubscriptions, nonNil(subs), len(subs))
}

func (s *StateStore) SaveOrders(ctx context.Context, orders []orderdomain.Order) error {
	return s.save(ctx, KeyOrders, nonNil(orders), len(orders))
}

func (s *StateStore) SaveTransactions(ctx context.Context, txs []ledgerdomain.Transaction) error {
	return s.save(ctx, KeyTransactions, nonNil(txs), len(txs))
}

// load reports whether key held a decodable value.
func (s *StateStore) load(ctx context.Context, key string, dst any) bool {
	payload, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		s.log.Warn("load failed, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := s.codec.Decode(payload, dst); err != nil {
		s.log.Warn("corrupt record, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *StateStore) save(ctx context.Context, key string, v any, count int) error {
	payload, err := s.codec.Encode(v)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, key, payload, Meta{
		"codec": s.codec.Name(),
		"count": count,
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
