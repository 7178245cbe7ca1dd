package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/cyberdesk/internal/billing"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/internal/config"
	deskdomain "github.com/smallbiznis/cyberdesk/internal/desk/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/cyberdesk/internal/ledger/service"
	orderdomain "github.com/smallbiznis/cyberdesk/internal/order/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"github.com/smallbiznis/cyberdesk/internal/session/timer"
	"github.com/smallbiznis/cyberdesk/internal/store"
	subscriptiondomain "github.com/smallbiznis/cyberdesk/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type trackerMock struct {
	mock.Mock
}

func (m *trackerMock) Track(session sessiondomain.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *trackerMock) Untrack(sessionID string) {
	m.Called(sessionID)
}

type failingStore struct {
	*store.StateStore
}

func (failingStore) SaveSessions(context.Context, []sessiondomain.Session) error {
	return errors.New("disk full")
}

func (failingStore) SaveTransactions(context.Context, []ledgerdomain.Transaction) error {
	return errors.New("disk full")
}

type fixture struct {
	svc     *Service
	clock   *clock.FakeClock
	tracker *trackerMock
	db      *gorm.DB
	state   *store.StateStore
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.Record{}))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	state := store.NewStateStore(store.NewGormKV(db, clk, "test"), store.Codec{Compress: true}, zap.NewNop())
	tracker := &trackerMock{}
	tracker.On("Track", mock.Anything).Return(nil)
	tracker.On("Untrack", mock.Anything).Return()

	svc := newServiceWith(t, clk, state, tracker)
	require.NoError(t, svc.Start(context.Background()))
	return &fixture{svc: svc, clock: clk, tracker: tracker, db: db, state: state}
}

func newServiceWith(t *testing.T, clk clock.Clock, state StateStore, tracker Tracker) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{
		Log:     zap.NewNop(),
		Clock:   clk,
		Store:   state,
		Ledger:  ledgerservice.NewService(ledgerservice.Params{Log: zap.NewNop(), GenID: node}),
		Timer:   tracker,
		Catalog: config.NewStaticCatalogHolder(config.DefaultCatalog()),
	})
}

func configure(t *testing.T, svc *Service) {
	t.Helper()
	_, err := svc.ConfigureBusiness(context.Background(), businessdomain.ConfigureRequest{
		Owner:            "Rado",
		Name:             "Cyber Tana",
		NIF:              "123",
		STAT:             "456",
		CyberPricePerMin: 100,
		GamePricePerMin:  200,
		Currency:         "MGA",
	})
	require.NoError(t, err)
}

func TestOperationsRejectedUntilConfigured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 30})
	assert.ErrorIs(t, err, deskdomain.ErrNotConfigured)
	_, err = f.svc.AddSubscription(ctx, subscriptiondomain.CreateSubscriptionRequest{ClientName: "Rino"})
	assert.ErrorIs(t, err, deskdomain.ErrNotConfigured)
	_, err = f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{ClientName: "Rino", Item: "Film", Price: 1000})
	assert.ErrorIs(t, err, deskdomain.ErrNotConfigured)

	assert.False(t, f.svc.Business().IsConfigured)
	assert.Empty(t, f.svc.Transactions(ledgerdomain.Filter{}))
}

func TestStartSession_ChargesPrepaidAndTracks(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "cyber", ClientName: " Rino ", DurationMinutes: 30})
	require.NoError(t, err)

	assert.Equal(t, "Rino", session.ClientName)
	assert.Equal(t, sessiondomain.TypeCyber, session.Type)
	assert.True(t, session.IsActive)
	assert.False(t, session.IsFinished)
	assert.Equal(t, f.clock.Now().UnixMilli(), session.StartTime)
	assert.Regexp(t, `^SESS-\d+-[0-9a-z]{5}$`, session.ID)

	txs := f.svc.Transactions(ledgerdomain.Filter{})
	require.Len(t, txs, 1)
	assert.Equal(t, int64(3000), txs[0].Amount)
	assert.Equal(t, "Session CYBER - Rino", txs[0].Description)
	assert.Equal(t, "01/03/2025 09:00:00", txs[0].Date)
	assert.Equal(t, int64(3000), f.svc.TotalRevenue())
	f.tracker.AssertNumberOfCalls(t, "Track", 1)
}

func TestStartSession_ValidationLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	cases := []struct {
		req  sessiondomain.StartSessionRequest
		want error
	}{
		{sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "", DurationMinutes: 30}, sessiondomain.ErrInvalidClientName},
		{sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 0}, sessiondomain.ErrInvalidMinutes},
		{sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: -5}, sessiondomain.ErrInvalidMinutes},
		{sessiondomain.StartSessionRequest{Type: "VR", ClientName: "Rino", DurationMinutes: 30}, sessiondomain.ErrInvalidType},
		{sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 1 << 62}, sessiondomain.ErrInvalidMinutes},
		{sessiondomain.StartSessionRequest{Type: "GAME", ClientName: "Rino", DurationMinutes: sessiondomain.MaxDurationMinutes + 1}, sessiondomain.ErrInvalidMinutes},
	}
	for _, tc := range cases {
		_, err := f.svc.StartSession(ctx, tc.req)
		assert.ErrorIs(t, err, tc.want)
	}

	assert.Empty(t, f.svc.Sessions())
	assert.Empty(t, f.svc.Transactions(ledgerdomain.Filter{}))
	f.tracker.AssertNotCalled(t, "Track", mock.Anything)
}

func TestStartSession_LongestDurationChargesExactly(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)

	session, err := f.svc.StartSession(context.Background(), sessiondomain.StartSessionRequest{
		Type:            "GAME",
		ClientName:      "Hery",
		DurationMinutes: sessiondomain.MaxDurationMinutes,
	})
	require.NoError(t, err)

	txs := f.svc.Transactions(ledgerdomain.Filter{})
	require.Len(t, txs, 1)
	assert.Equal(t, sessiondomain.MaxDurationMinutes*200, txs[0].Amount)
	assert.Equal(t, sessiondomain.MaxDurationMinutes*60, session.RemainingSeconds(f.clock.Now()))
	assert.False(t, session.Expired(f.clock.Now()))
}

func TestFinishSession_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "GAME", ClientName: "Hery", DurationMinutes: 60})
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	first, err := f.svc.FinishSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, first.IsActive)
	assert.True(t, first.IsFinished)
	assert.Equal(t, sessiondomain.FinishReasonManual, first.FinishReason)

	f.clock.Advance(time.Minute)
	second, err := f.svc.FinishSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Len(t, f.svc.Transactions(ledgerdomain.Filter{}), 1)
	assert.Equal(t, int64(12000), f.svc.TotalRevenue())
	f.tracker.AssertNumberOfCalls(t, "Untrack", 1)

	_, err = f.svc.FinishSession(ctx, "SESS-unknown")
	assert.ErrorIs(t, err, sessiondomain.ErrNotFound)
}

func TestExpireSession_LandsWhileReconfiguring(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 5})
	require.NoError(t, err)
	f.svc.Reconfigure(ctx)

	_, err = f.svc.FinishSession(ctx, session.ID)
	assert.ErrorIs(t, err, deskdomain.ErrNotConfigured)

	require.NoError(t, f.svc.ExpireSession(ctx, session.ID))
	got, err := f.svc.Session(session.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFinished)
	assert.Equal(t, sessiondomain.FinishReasonExpired, got.FinishReason)
}

func TestAddSubscription_PriceFallbackAndEndDate(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	cases := map[string]int64{
		"":                    50000,
		"abc":                 50000,
		"0":                   50000,
		"-200":                50000,
		"75000":               75000,
		"60 000":              60000,
		"25000.7":             25000,
		"1e30":                50000,
		"Inf":                 50000,
		"NaN":                 50000,
		"9223372036854775808": 50000,
	}
	for raw, want := range cases {
		sub, err := f.svc.AddSubscription(ctx, subscriptiondomain.CreateSubscriptionRequest{ClientName: "Fidy", Price: raw})
		require.NoError(t, err, raw)
		assert.Equal(t, want, sub.Price, raw)
		assert.Equal(t, subscriptiondomain.PlanPremium, sub.Type)
		assert.Equal(t, "01/03/2025", sub.StartDate)
		assert.Equal(t, "31/03/2025", sub.EndDate)
	}

	_, err := f.svc.AddSubscription(ctx, subscriptiondomain.CreateSubscriptionRequest{ClientName: "  "})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidClientName)

	txs := f.svc.Transactions(ledgerdomain.Filter{Source: ledgerdomain.SourceTypeSubscription})
	assert.Len(t, txs, len(cases))
	assert.Equal(t, "Abonnement Mensuel - Fidy", txs[0].Description)
}

func TestAddOrder_DefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	order, err := f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{ClientName: "Naina", Item: "Saison Série", Price: 5000})
	require.NoError(t, err)
	assert.Equal(t, orderdomain.CategoryFilm, order.Category)
	assert.Equal(t, orderdomain.StatusCompleted, order.Status)

	_, err = f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{ClientName: "Naina", Item: "X", Category: "BOOK", Price: 5000})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidCategory)
	_, err = f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{ClientName: "Naina", Item: "X", Price: 0})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidPrice)
	_, err = f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{ClientName: "Naina", Item: " ", Price: 100})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidItem)
	_, err = f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{Item: "X", Price: 100})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidClientName)

	txs := f.svc.Transactions(ledgerdomain.Filter{})
	require.Len(t, txs, 1)
	assert.Equal(t, "Vente FILM: Saison Série", txs[0].Description)
}

func TestLedgerTotalMatchesComputedCharges(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()
	prices := billing.PricesFrom(f.svc.Business())

	var expected int64
	for i, minutes := range []int64{15, 30, 45} {
		sessionType := "CYBER"
		if i%2 == 1 {
			sessionType = "GAME"
		}
		session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: sessionType, ClientName: "C", DurationMinutes: minutes})
		require.NoError(t, err)
		charge, err := billing.Calculate(billing.ForSession(session), prices)
		require.NoError(t, err)
		expected += charge.Amount
		f.clock.Advance(time.Second)
	}
	sub, err := f.svc.AddSubscription(ctx, subscriptiondomain.CreateSubscriptionRequest{ClientName: "C", Price: "40000"})
	require.NoError(t, err)
	expected += sub.Price
	order, err := f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{ClientName: "C", Item: "Logiciel PRO", Category: "SOFTWARE", Price: 15000})
	require.NoError(t, err)
	expected += order.Price

	assert.Equal(t, expected, f.svc.TotalRevenue())
	assert.Len(t, f.svc.Transactions(ledgerdomain.Filter{}), 5)
}

func TestDashboardAndFinishedOrdering(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: fmt.Sprintf("C%d", i), DurationMinutes: 10})
		require.NoError(t, err)
		ids = append(ids, session.ID)
		f.clock.Advance(time.Second)
	}
	_, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "GAME", ClientName: "G", DurationMinutes: 10})
	require.NoError(t, err)

	_, err = f.svc.FinishSession(ctx, ids[1])
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.svc.FinishSession(ctx, ids[0])
	require.NoError(t, err)

	_, err = f.svc.AddOrder(ctx, orderdomain.CreateOrderRequest{ClientName: "C", Item: "Film", Price: 1000})
	require.NoError(t, err)

	dash := f.svc.Dashboard()
	assert.Equal(t, deskdomain.ActiveCounts{Total: 2, Cyber: 1, Game: 1}, dash.ActiveSessions)
	assert.Equal(t, 1, dash.OrderCount)
	assert.Equal(t, int64(1000), dash.OrderRevenue)
	assert.Equal(t, 5, dash.TransactionCount)
	assert.Equal(t, int64(3000+2000+1000), dash.TotalRevenue)
	assert.Equal(t, "6 000 Ar", dash.TotalRevenueDisplay)
	require.Len(t, dash.RecentFinishedCyber, 2)
	assert.Equal(t, ids[0], dash.RecentFinishedCyber[0].ID)
	assert.Equal(t, ids[1], dash.RecentFinishedCyber[1].ID)
	assert.Empty(t, dash.RecentFinishedGame)
	assert.Equal(t, "Vente FILM: Film", dash.RecentTransactions[0].Description)
}

func TestRestartRestoresStateAndResumesTimers(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	running, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 30})
	require.NoError(t, err)
	done, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "GAME", ClientName: "Hery", DurationMinutes: 30})
	require.NoError(t, err)
	_, err = f.svc.FinishSession(ctx, done.ID)
	require.NoError(t, err)

	tracker := &trackerMock{}
	tracker.On("Track", mock.Anything).Return(nil)
	restarted := newServiceWith(t, f.clock, f.state, tracker)
	require.NoError(t, restarted.Start(ctx))

	assert.True(t, restarted.Business().IsConfigured)
	assert.Len(t, restarted.Sessions(), 2)
	assert.Equal(t, int64(9000), restarted.TotalRevenue())
	tracker.AssertNumberOfCalls(t, "Track", 1)
	tracker.AssertCalled(t, "Track", mock.MatchedBy(func(s sessiondomain.Session) bool { return s.ID == running.ID }))
}

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	state := store.NewStateStore(store.NewGormKV(db, clk, ""), store.Codec{}, zap.NewNop())
	tracker := &trackerMock{}
	tracker.On("Track", mock.Anything).Return(nil)

	svc := newServiceWith(t, clk, failingStore{state}, tracker)
	require.NoError(t, svc.Start(context.Background()))
	configure(t, svc)

	_, err := svc.StartSession(context.Background(), sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 30})
	require.NoError(t, err)
	assert.Len(t, svc.Sessions(), 1)
	assert.Equal(t, int64(3000), svc.TotalRevenue())
}

func TestBillableRequiresFinishedSession(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 30})
	require.NoError(t, err)

	_, _, _, err = f.svc.Billable(ctx, billing.KindSession, session.ID)
	assert.ErrorIs(t, err, deskdomain.ErrSessionActive)

	_, err = f.svc.FinishSession(ctx, session.ID)
	require.NoError(t, err)
	b, prices, business, err := f.svc.Billable(ctx, billing.KindSession, session.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.KindSession, b.Kind)
	assert.Equal(t, int64(100), prices.CyberPerMin)
	assert.Equal(t, "Cyber Tana", business.Name)

	_, _, _, err = f.svc.Billable(ctx, billing.Kind("refund"), session.ID)
	assert.ErrorIs(t, err, deskdomain.ErrInvalidKind)
}

func TestSessionReceiptKeepsPriceAtSale(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(100), session.PricePerMin)
	_, err = f.svc.FinishSession(ctx, session.ID)
	require.NoError(t, err)

	_, err = f.svc.ConfigureBusiness(ctx, businessdomain.ConfigureRequest{
		Owner:            "Rado",
		Name:             "Cyber Tana",
		CyberPricePerMin: 150,
		GamePricePerMin:  250,
		Currency:         "MGA",
	})
	require.NoError(t, err)

	b, prices, _, err := f.svc.Billable(ctx, billing.KindSession, session.ID)
	require.NoError(t, err)
	charge, err := billing.Calculate(b, prices)
	require.NoError(t, err)

	txs := f.svc.Transactions(ledgerdomain.Filter{Source: ledgerdomain.SourceTypeSession})
	require.Len(t, txs, 1)
	assert.Equal(t, int64(3000), txs[0].Amount)
	assert.Equal(t, txs[0].Amount, charge.Amount)
	assert.Equal(t, int64(100), charge.UnitPrice)

	view, err := f.svc.SessionView(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), view.Cost)
}

func TestStartClosesSessionsNeitherActiveNorFinished(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()
	now := f.clock.Now()

	require.NoError(t, f.state.SaveSessions(ctx, []sessiondomain.Session{
		{ID: "SESS-LATE", Type: sessiondomain.TypeCyber, ClientName: "Rino", DurationMinutes: 30, StartTime: now.Add(-time.Hour).UnixMilli()},
		{ID: "SESS-HALF", Type: sessiondomain.TypeGame, ClientName: "Hery", DurationMinutes: 30, StartTime: now.Add(-10 * time.Minute).UnixMilli()},
	}))

	tracker := &trackerMock{}
	tracker.On("Track", mock.Anything).Return(nil)
	restarted := newServiceWith(t, f.clock, f.state, tracker)
	require.NoError(t, restarted.Start(ctx))

	late, err := restarted.Session("SESS-LATE")
	require.NoError(t, err)
	assert.True(t, late.IsFinished)
	assert.False(t, late.IsActive)
	assert.Equal(t, sessiondomain.FinishReasonExpired, late.FinishReason)
	assert.Equal(t, late.EndsAt().UnixMilli(), late.FinishedAt)

	half, err := restarted.Session("SESS-HALF")
	require.NoError(t, err)
	assert.True(t, half.IsFinished)
	assert.False(t, half.IsActive)
	assert.Equal(t, sessiondomain.FinishReasonManual, half.FinishReason)
	assert.Equal(t, now.UnixMilli(), half.FinishedAt)
	tracker.AssertNotCalled(t, "Track", mock.Anything)

	stored := f.state.Load(ctx)
	require.Len(t, stored.Sessions, 2)
	for _, session := range stored.Sessions {
		assert.NotEqual(t, session.IsActive, session.IsFinished, session.ID)
	}
}

func TestSessionView(t *testing.T) {
	f := newFixture(t)
	configure(t, f.svc)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, sessiondomain.StartSessionRequest{Type: "GAME", ClientName: "Hery", DurationMinutes: 15})
	require.NoError(t, err)
	f.clock.Advance(5*time.Minute + 30*time.Second)

	view, err := f.svc.SessionView(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(570), view.RemainingSeconds)
	assert.Equal(t, "09:30", view.Display)
	assert.Equal(t, int64(3000), view.Cost)
	assert.InDelta(t, 570.0/900.0, view.Progress, 1e-9)
	assert.False(t, view.Expired)
	assert.Equal(t, session.StartTime+15*60*1000, view.EndsAt)
	assert.Len(t, f.svc.ActiveViews(), 1)
}

func TestTimerExpiryFinishesSessionEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	state := store.NewStateStore(store.NewGormKV(db, clk, ""), store.Codec{}, zap.NewNop())
	engine := timer.New(timer.Params{
		Log:    zap.NewNop(),
		Clock:  clk,
		Alarm:  timer.NoopAlarm{},
		Config: timer.Config{TickInterval: 5 * time.Millisecond},
	})
	t.Cleanup(func() { _ = engine.Stop(context.Background()) })

	svc := newServiceWith(t, clk, state, engine)
	engine.SetExpiryHandler(svc.ExpireSession)
	require.NoError(t, svc.Start(context.Background()))
	configure(t, svc)

	session, err := svc.StartSession(context.Background(), sessiondomain.StartSessionRequest{Type: "CYBER", ClientName: "Rino", DurationMinutes: 1})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	assert.Eventually(t, func() bool {
		got, err := svc.Session(session.ID)
		return err == nil && got.IsFinished
	}, time.Second, 5*time.Millisecond)

	got, err := svc.Session(session.ID)
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.FinishReasonExpired, got.FinishReason)
	assert.Len(t, svc.Transactions(ledgerdomain.Filter{}), 1)
	assert.Equal(t, 0, svc.ActiveCount(""))
}
