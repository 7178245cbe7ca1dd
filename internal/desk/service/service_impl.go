package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/cyberdesk/internal/billing"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/internal/config"
	deskdomain "github.com/smallbiznis/cyberdesk/internal/desk/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/cyberdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/cyberdesk/internal/order/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"github.com/smallbiznis/cyberdesk/internal/session/timer"
	"github.com/smallbiznis/cyberdesk/internal/store"
	subscriptiondomain "github.com/smallbiznis/cyberdesk/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// StateStore persists the desk collections.
type StateStore interface {
	Load(ctx context.Context) store.Snapshot
	SaveBusiness(ctx context.Context, business businessdomain.BusinessConfig) error
	SaveSessions(ctx context.Context, sessions []sessiondomain.Session) error
	SaveSubscriptions(ctx context.Context, subs []subscriptiondomain.Subscription) error
	SaveOrders(ctx context.Context, orders []orderdomain.Order) error
	SaveTransactions(ctx context.Context, txs []ledgerdomain.Transaction) error
}

type LedgerPoster interface {
	Post(ctx context.Context, ledger *ledgerdomain.Ledger, req ledgerdomain.EntryRequest) (ledgerdomain.Transaction, error)
}

// Tracker drives per-session countdowns.
type Tracker interface {
	Track(session sessiondomain.Session) error
	Untrack(sessionID string)
}

type ViewPublisher interface {
	Publish(view sessiondomain.View)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Store      StateStore
	Ledger     LedgerPoster
	Timer      Tracker
	Catalog    *config.CatalogHolder
	Live       ViewPublisher       `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Service owns the desk state. Every mutation runs under one mutex, so an
// entity and its ledger line are appended together and saved afterwards.
type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	store      StateStore
	ledgerSvc  LedgerPoster
	timer      Tracker
	catalog    *config.CatalogHolder
	live       ViewPublisher
	obsMetrics *obsmetrics.Metrics

	mu            sync.Mutex
	business      businessdomain.BusinessConfig
	sessions      []sessiondomain.Session
	subscriptions []subscriptiondomain.Subscription
	orders        []orderdomain.Order
	ledger        *ledgerdomain.Ledger
	entropy       io.Reader
}

func NewService(p Params) *Service {
	catalog := p.Catalog
	if catalog == nil {
		catalog = config.NewStaticCatalogHolder(config.DefaultCatalog())
	}
	return &Service{
		log:        p.Log.Named("desk.service"),
		clock:      p.Clock,
		store:      p.Store,
		ledgerSvc:  p.Ledger,
		timer:      p.Timer,
		catalog:    catalog,
		live:       p.Live,
		obsMetrics: p.ObsMetrics,
		business:   businessdomain.Default(),
		ledger:     ledgerdomain.NewLedger(nil),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Start loads the persisted state and resumes the countdown of every active
// session. Sessions that ran out while the desk was closed finish right away.
func (s *Service) Start(ctx context.Context) error {
	snapshot := s.store.Load(ctx)

	now := s.clock.Now()
	repaired := 0
	s.mu.Lock()
	s.business = snapshot.Business
	s.sessions = make([]sessiondomain.Session, 0, len(snapshot.Sessions))
	for _, session := range snapshot.Sessions {
		switch {
		case session.IsFinished:
			session.IsActive = false
			session.Completed = true
		case !session.IsActive:
			// Neither running nor finished: close it instead of leaving it in limbo.
			if session.Expired(now) {
				session.Finish(session.EndsAt(), sessiondomain.FinishReasonExpired)
			} else {
				session.Finish(now, sessiondomain.FinishReasonManual)
			}
			repaired++
		}
		s.sessions = append(s.sessions, session)
	}
	s.subscriptions = append([]subscriptiondomain.Subscription(nil), snapshot.Subscriptions...)
	s.orders = append([]orderdomain.Order(nil), snapshot.Orders...)
	s.ledger = ledgerdomain.NewLedger(snapshot.Transactions)
	active := s.activeSessionsLocked()
	if repaired > 0 {
		s.log.Warn("closed sessions stored as neither active nor finished", zap.Int("count", repaired))
		s.persist(ctx, store.KeySessions)
	}
	s.mu.Unlock()

	for _, session := range active {
		if err := s.timer.Track(session); err != nil {
			return fmt.Errorf("resume session %s: %w", session.ID, err)
		}
	}

	s.log.Info("desk state loaded",
		zap.Bool("configured", snapshot.Business.IsConfigured),
		zap.Int("sessions", len(snapshot.Sessions)),
		zap.Int("active_sessions", len(active)),
		zap.Int("subscriptions", len(snapshot.Subscriptions)),
		zap.Int("orders", len(snapshot.Orders)),
		zap.Int("transactions", len(snapshot.Transactions)),
	)
	return nil
}

func (s *Service) Business() businessdomain.BusinessConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.business
}

func (s *Service) Catalog() config.Catalog {
	return s.catalog.Get()
}

// ConfigureBusiness submits the setup wizard and unlocks the desk.
func (s *Service) ConfigureBusiness(ctx context.Context, req businessdomain.ConfigureRequest) (businessdomain.BusinessConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := businessdomain.Apply(s.business, req)
	if err != nil {
		return businessdomain.BusinessConfig{}, err
	}
	s.business = next
	s.persist(ctx, store.KeyBusiness)

	s.log.Info("business configured",
		zap.String("name", next.Name),
		zap.String("currency", string(next.Currency)),
	)
	return next, nil
}

// Reconfigure locks the desk until the wizard is submitted again.
func (s *Service) Reconfigure(ctx context.Context) businessdomain.BusinessConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.business.IsConfigured = false
	s.persist(ctx, store.KeyBusiness)
	s.log.Info("business reconfiguration requested")
	return s.business
}

func (s *Service) StartSession(ctx context.Context, req sessiondomain.StartSessionRequest) (sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConfigured(); err != nil {
		return sessiondomain.Session{}, err
	}
	sessionType, ok := sessiondomain.ParseType(req.Type)
	if !ok {
		return sessiondomain.Session{}, sessiondomain.ErrInvalidType
	}
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return sessiondomain.Session{}, sessiondomain.ErrInvalidClientName
	}
	unit := billing.PricesFrom(s.business).PerMinute(sessionType)
	if !sessiondomain.ValidDuration(req.DurationMinutes) || !billing.ChargeFits(req.DurationMinutes, unit) {
		return sessiondomain.Session{}, sessiondomain.ErrInvalidMinutes
	}

	now := s.clock.Now()
	session := sessiondomain.Session{
		ID:              s.newID("SESS", now),
		Type:            sessionType,
		ClientName:      clientName,
		DurationMinutes: req.DurationMinutes,
		StartTime:       now.UnixMilli(),
		PricePerMin:     unit,
		IsActive:        true,
	}
	charge := billing.SessionCharge(session, billing.PricesFrom(s.business))
	if _, err := s.ledgerSvc.Post(ctx, s.ledger, ledgerdomain.EntryRequest{
		Description: charge.LedgerDescription,
		Amount:      charge.Amount,
		Type:        ledgerdomain.TransactionTypeIncome,
		Source:      ledgerdomain.SourceTypeSession,
		SourceID:    session.ID,
		OccurredAt:  now,
	}); err != nil {
		return sessiondomain.Session{}, err
	}
	s.sessions = append(s.sessions, session)
	s.persist(ctx, store.KeySessions, store.KeyTransactions)

	if err := s.timer.Track(session); err != nil {
		s.log.Error("track session failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordSessionStarted(ctx, string(session.Type))
	}
	s.log.Info("session started",
		zap.String("session_id", session.ID),
		zap.String("type", string(session.Type)),
		zap.Int64("duration_minutes", session.DurationMinutes),
		zap.Int64("amount", charge.Amount),
	)
	return session, nil
}

// FinishSession ends a session on operator request. Finishing an already
// finished session returns it unchanged.
func (s *Service) FinishSession(ctx context.Context, id string) (sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConfigured(); err != nil {
		return sessiondomain.Session{}, err
	}
	return s.finishLocked(ctx, id, sessiondomain.FinishReasonManual)
}

// ExpireSession is the timer engine's expiry callback. It is not gated on
// configuration so a countdown always lands.
func (s *Service) ExpireSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.finishLocked(ctx, id, sessiondomain.FinishReasonExpired)
	return err
}

func (s *Service) finishLocked(ctx context.Context, id string, reason sessiondomain.FinishReason) (sessiondomain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return sessiondomain.Session{}, sessiondomain.ErrInvalidID
	}
	idx := s.sessionIndexLocked(id)
	if idx < 0 {
		return sessiondomain.Session{}, sessiondomain.ErrNotFound
	}

	now := s.clock.Now()
	if !s.sessions[idx].Finish(now, reason) {
		return s.sessions[idx], nil
	}
	session := s.sessions[idx]
	s.persist(ctx, store.KeySessions)
	s.timer.Untrack(session.ID)
	s.publishLocked(session, now)

	if s.obsMetrics != nil {
		s.obsMetrics.RecordSessionFinished(ctx, string(reason))
	}
	s.log.Info("session finished",
		zap.String("session_id", session.ID),
		zap.String("reason", string(reason)),
	)
	return session, nil
}

func (s *Service) AddSubscription(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConfigured(); err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidClientName
	}

	plan := s.catalog.Get().Subscription
	price := parsePrice(req.Price, plan.DefaultPrice)

	now := s.clock.Now()
	sub := subscriptiondomain.Subscription{
		ID:         s.newID("SUB", now),
		ClientName: clientName,
		StartDate:  now.Format(subscriptiondomain.DateLayout),
		EndDate:    now.AddDate(0, 0, plan.Days).Format(subscriptiondomain.DateLayout),
		Type:       subscriptiondomain.PlanPremium,
		Price:      price,
		CreatedAt:  now.UnixMilli(),
	}
	charge := billing.SubscriptionCharge(sub)
	if _, err := s.ledgerSvc.Post(ctx, s.ledger, ledgerdomain.EntryRequest{
		Description: charge.LedgerDescription,
		Amount:      charge.Amount,
		Type:        ledgerdomain.TransactionTypeIncome,
		Source:      ledgerdomain.SourceTypeSubscription,
		SourceID:    sub.ID,
		OccurredAt:  now,
	}); err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	s.subscriptions = append(s.subscriptions, sub)
	s.persist(ctx, store.KeySubscriptions, store.KeyTransactions)

	s.log.Info("subscription added", zap.String("subscription_id", sub.ID), zap.Int64("amount", sub.Price))
	return sub, nil
}

func (s *Service) AddOrder(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireConfigured(); err != nil {
		return orderdomain.Order{}, err
	}
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return orderdomain.Order{}, orderdomain.ErrInvalidClientName
	}
	item := strings.TrimSpace(req.Item)
	if item == "" {
		return orderdomain.Order{}, orderdomain.ErrInvalidItem
	}
	category := orderdomain.CategoryFilm
	if strings.TrimSpace(req.Category) != "" {
		parsed, ok := orderdomain.ParseCategory(req.Category)
		if !ok {
			return orderdomain.Order{}, orderdomain.ErrInvalidCategory
		}
		category = parsed
	}
	if req.Price <= 0 {
		return orderdomain.Order{}, orderdomain.ErrInvalidPrice
	}

	now := s.clock.Now()
	order := orderdomain.Order{
		ID:         s.newID("ORD", now),
		ClientName: clientName,
		Item:       item,
		Category:   category,
		Price:      req.Price,
		Status:     orderdomain.StatusCompleted,
		CreatedAt:  now.UnixMilli(),
	}
	charge := billing.OrderCharge(order)
	if _, err := s.ledgerSvc.Post(ctx, s.ledger, ledgerdomain.EntryRequest{
		Description: charge.LedgerDescription,
		Amount:      charge.Amount,
		Type:        ledgerdomain.TransactionTypeIncome,
		Source:      ledgerdomain.SourceTypeOrder,
		SourceID:    order.ID,
		OccurredAt:  now,
	}); err != nil {
		return orderdomain.Order{}, err
	}
	s.orders = append(s.orders, order)
	s.persist(ctx, store.KeyOrders, store.KeyTransactions)

	s.log.Info("order added",
		zap.String("order_id", order.ID),
		zap.String("category", string(order.Category)),
		zap.Int64("amount", order.Price),
	)
	return order, nil
}

func (s *Service) requireConfigured() error {
	if !s.business.IsConfigured {
		return deskdomain.ErrNotConfigured
	}
	return nil
}

// newID builds "<prefix>-<unix ms>-<5 char suffix>". The suffix comes from a
// monotonic ULID so ids minted in the same millisecond still differ.
func (s *Service) newID(prefix string, now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	suffix := ""
	if err == nil {
		raw := id.String()
		suffix = strings.ToLower(raw[len(raw)-5:])
	} else {
		suffix = strconv.FormatInt(now.UnixNano()%100000, 36)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), suffix)
}

// parsePrice keeps the operator's price when it is a positive integer and
// uses fallback otherwise.
func parsePrice(raw string, fallback int64) int64 {
	value := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		if parsed > 0 {
			return parsed
		}
		return fallback
	}
	if errors.Is(err, strconv.ErrRange) {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || f < 1 || f >= math.MaxInt64 {
		return fallback
	}
	return int64(f)
}

func (s *Service) sessionIndexLocked(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) activeSessionsLocked() []sessiondomain.Session {
	out := make([]sessiondomain.Session, 0)
	for _, session := range s.sessions {
		if session.IsActive && !session.IsFinished {
			out = append(out, session)
		}
	}
	return out
}

// persist rewrites the named collections. Failures are logged and the
// in-memory state is kept.
func (s *Service) persist(ctx context.Context, keys ...string) {
	for _, key := range keys {
		var err error
		switch key {
		case store.KeyBusiness:
			err = s.store.SaveBusiness(ctx, s.business)
		case store.KeySessions:
			err = s.store.SaveSessions(ctx, s.sessions)
		case store.KeySubscriptions:
			err = s.store.SaveSubscriptions(ctx, s.subscriptions)
		case store.KeyOrders:
			err = s.store.SaveOrders(ctx, s.orders)
		case store.KeyTransactions:
			err = s.store.SaveTransactions(ctx, s.ledger.Entries())
		}
		if err != nil {
			s.log.Error("persist failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// OnTick republishes the live view of a tracked session.
func (s *Service) OnTick(_ context.Context, tick timer.Tick) {
	if s.live == nil {
		return
	}
	s.mu.Lock()
	prices := billing.PricesFrom(s.business)
	s.mu.Unlock()
	s.live.Publish(buildView(tick.Session, tick.Now, prices))
}

func (s *Service) publishLocked(session sessiondomain.Session, now time.Time) {
	if s.live == nil {
		return
	}
	s.live.Publish(buildView(session, now, billing.PricesFrom(s.business)))
}

func buildView(session sessiondomain.Session, now time.Time, prices billing.PriceTable) sessiondomain.View {
	remaining := session.RemainingSeconds(now)
	if session.IsFinished {
		remaining = 0
	}
	progress := 0.0
	if total := session.TotalSeconds(); total > 0 {
		progress = float64(remaining) / float64(total)
	}
	return sessiondomain.View{
		SessionID:        session.ID,
		Type:             session.Type,
		ClientName:       session.ClientName,
		DurationMinutes:  session.DurationMinutes,
		RemainingSeconds: remaining,
		Display:          sessiondomain.FormatClock(remaining),
		Progress:         progress,
		Cost:             billing.SessionCharge(session, prices).Amount,
		EndsAt:           session.EndsAt().UnixMilli(),
		Expired:          remaining == 0,
		IsActive:         session.IsActive,
	}
}

func sortNewestFirst[T any](items []T, at func(T) int64) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return at(out[i]) > at(out[j]) })
	return out
}
