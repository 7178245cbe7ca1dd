package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/cyberdesk/internal/billing"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	deskdomain "github.com/smallbiznis/cyberdesk/internal/desk/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/cyberdesk/internal/order/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	subscriptiondomain "github.com/smallbiznis/cyberdesk/internal/subscription/domain"
)

// Sessions lists every session, newest first.
func (s *Service) Sessions() []sessiondomain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortNewestFirst(s.sessions, func(v sessiondomain.Session) int64 { return v.StartTime })
}

func (s *Service) Session(id string) (sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.sessionIndexLocked(strings.TrimSpace(id))
	if idx < 0 {
		return sessiondomain.Session{}, sessiondomain.ErrNotFound
	}
	return s.sessions[idx], nil
}

func (s *Service) Subscriptions() []subscriptiondomain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortNewestFirst(s.subscriptions, func(v subscriptiondomain.Subscription) int64 { return v.CreatedAt })
}

func (s *Service) Orders() []orderdomain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortNewestFirst(s.orders, func(v orderdomain.Order) int64 { return v.CreatedAt })
}

// Transactions lists ledger entries matching filter, newest first.
func (s *Service) Transactions(filter ledgerdomain.Filter) []ledgerdomain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := s.ledger.Filter(filter)
	out := make([]ledgerdomain.Transaction, 0, len(matched))
	for i := len(matched) - 1; i >= 0; i-- {
		out = append(out, matched[i])
	}
	return out
}

func (s *Service) TotalRevenue() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Total()
}

// ActiveCount counts running sessions. An empty type counts all of them.
func (s *Service) ActiveCount(sessionType sessiondomain.Type) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked(sessionType)
}

func (s *Service) activeCountLocked(sessionType sessiondomain.Type) int {
	count := 0
	for _, session := range s.sessions {
		if !session.IsActive || session.IsFinished {
			continue
		}
		if sessionType != "" && session.Type != sessionType {
			continue
		}
		count++
	}
	return count
}

// FinishedSessions returns finished sessions, most recently finished first.
// limit <= 0 returns all of them.
func (s *Service) FinishedSessions(sessionType sessiondomain.Type, limit int) []sessiondomain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedLocked(sessionType, limit)
}

func (s *Service) finishedLocked(sessionType sessiondomain.Type, limit int) []sessiondomain.Session {
	finished := make([]sessiondomain.Session, 0)
	for _, session := range s.sessions {
		if !session.IsFinished {
			continue
		}
		if sessionType != "" && session.Type != sessionType {
			continue
		}
		finished = append(finished, session)
	}
	finished = sortNewestFirst(finished, func(v sessiondomain.Session) int64 {
		if v.FinishedAt > 0 {
			return v.FinishedAt
		}
		return v.StartTime
	})
	if limit > 0 && len(finished) > limit {
		finished = finished[:limit]
	}
	return finished
}

func (s *Service) Dashboard() deskdomain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orderRevenue int64
	for _, order := range s.orders {
		orderRevenue += order.Price
	}
	total := s.ledger.Total()

	return deskdomain.Dashboard{
		Currency:            s.business.Currency,
		TotalRevenue:        total,
		TotalRevenueDisplay: billing.FormatAmount(total, s.business.Currency),
		ActiveSessions: deskdomain.ActiveCounts{
			Total: s.activeCountLocked(""),
			Cyber: s.activeCountLocked(sessiondomain.TypeCyber),
			Game:  s.activeCountLocked(sessiondomain.TypeGame),
		},
		SubscriptionCount:   len(s.subscriptions),
		OrderCount:          len(s.orders),
		OrderRevenue:        orderRevenue,
		TransactionCount:    s.ledger.Len(),
		RecentTransactions:  s.ledger.Recent(deskdomain.RecentTransactionsLimit),
		RecentFinishedCyber: s.finishedLocked(sessiondomain.TypeCyber, deskdomain.RecentFinishedLimit),
		RecentFinishedGame:  s.finishedLocked(sessiondomain.TypeGame, deskdomain.RecentFinishedLimit),
	}
}

// SessionView is the one-shot read of a session's countdown.
func (s *Service) SessionView(id string) (sessiondomain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.sessionIndexLocked(strings.TrimSpace(id))
	if idx < 0 {
		return sessiondomain.View{}, sessiondomain.ErrNotFound
	}
	return buildView(s.sessions[idx], s.clock.Now(), billing.PricesFrom(s.business)), nil
}

// ActiveViews returns the countdown of every running session.
func (s *Service) ActiveViews() []sessiondomain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	prices := billing.PricesFrom(s.business)
	views := make([]sessiondomain.View, 0)
	for _, session := range s.activeSessionsLocked() {
		views = append(views, buildView(session, now, prices))
	}
	return views
}

// Billable resolves a receipt subject together with the prices and business
// identity it is rendered with.
func (s *Service) Billable(_ context.Context, kind billing.Kind, id string) (billing.Billable, billing.PriceTable, businessdomain.BusinessConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	prices := billing.PricesFrom(s.business)
	switch kind {
	case billing.KindSession:
		idx := s.sessionIndexLocked(id)
		if idx < 0 {
			return billing.Billable{}, prices, s.business, sessiondomain.ErrNotFound
		}
		if !s.sessions[idx].IsFinished {
			return billing.Billable{}, prices, s.business, deskdomain.ErrSessionActive
		}
		return billing.ForSession(s.sessions[idx]), prices, s.business, nil
	case billing.KindSubscription:
		for _, sub := range s.subscriptions {
			if sub.ID == id {
				return billing.ForSubscription(sub), prices, s.business, nil
			}
		}
		return billing.Billable{}, prices, s.business, subscriptiondomain.ErrNotFound
	case billing.KindOrder:
		for _, order := range s.orders {
			if order.ID == id {
				return billing.ForOrder(order), prices, s.business, nil
			}
		}
		return billing.Billable{}, prices, s.business, orderdomain.ErrNotFound
	default:
		return billing.Billable{}, prices, s.business, deskdomain.ErrInvalidKind
	}
}

func (s *Service) Statement() deskdomain.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deskdomain.Statement{
		Business:     s.business,
		Transactions: s.ledger.Entries(),
		Total:        s.ledger.Total(),
	}
}
