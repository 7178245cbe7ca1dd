package billing

import (
	"errors"
	"fmt"
	"math"

	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	orderdomain "github.com/smallbiznis/cyberdesk/internal/order/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	subscriptiondomain "github.com/smallbiznis/cyberdesk/internal/subscription/domain"
)

// PriceTable is the per-minute price of each workstation type.
type PriceTable struct {
	CyberPerMin int64
	GamePerMin  int64
}

func PricesFrom(cfg businessdomain.BusinessConfig) PriceTable {
	return PriceTable{
		CyberPerMin: cfg.CyberPricePerMin,
		GamePerMin:  cfg.GamePricePerMin,
	}
}

func (p PriceTable) PerMinute(t sessiondomain.Type) int64 {
	switch t {
	case sessiondomain.TypeCyber:
		return p.CyberPerMin
	case sessiondomain.TypeGame:
		return p.GamePerMin
	default:
		return 0
	}
}

// Charge is what a billable record costs and how it is described on a
// receipt and in the ledger.
type Charge struct {
	Amount            int64  `json:"amount"`
	UnitPrice         int64  `json:"unit_price"`
	Quantity          int64  `json:"quantity"`
	Description       string `json:"description"`
	LedgerDescription string `json:"ledger_description"`
}

// ChargeFits reports whether minutes at unit per minute stays within int64.
func ChargeFits(minutes, unit int64) bool {
	if minutes <= 0 || unit <= 0 {
		return true
	}
	return minutes <= math.MaxInt64/unit
}

// SessionCharge bills the rate recorded on the session. prices only applies
// to sessions stored without one.
func SessionCharge(s sessiondomain.Session, prices PriceTable) Charge {
	unit := s.PricePerMin
	if unit <= 0 {
		unit = prices.PerMinute(s.Type)
	}
	minutes := min(max(s.DurationMinutes, 0), sessiondomain.MaxDurationMinutes)
	return Charge{
		Amount:            minutes * unit,
		UnitPrice:         unit,
		Quantity:          minutes,
		Description:       fmt.Sprintf("Service %s - %d minutes", s.Type, minutes),
		LedgerDescription: fmt.Sprintf("Session %s - %s", s.Type, s.ClientName),
	}
}

func SubscriptionCharge(sub subscriptiondomain.Subscription) Charge {
	return Charge{
		Amount:            sub.Price,
		UnitPrice:         sub.Price,
		Quantity:          1,
		Description:       fmt.Sprintf("Abonnement Mensuel %s", sub.Type),
		LedgerDescription: fmt.Sprintf("Abonnement Mensuel - %s", sub.ClientName),
	}
}

func OrderCharge(o orderdomain.Order) Charge {
	return Charge{
		Amount:            o.Price,
		UnitPrice:         o.Price,
		Quantity:          1,
		Description:       fmt.Sprintf("Achat: %s (%s)", o.Item, o.Category),
		LedgerDescription: fmt.Sprintf("Vente %s: %s", o.Category, o.Item),
	}
}

type Kind string

const (
	KindSession      Kind = "session"
	KindSubscription Kind = "subscription"
	KindOrder        Kind = "order"
)

// Billable is a tagged union over the three chargeable records. Exactly the
// payload named by Kind is set.
type Billable struct {
	Kind         Kind
	Session      *sessiondomain.Session
	Subscription *subscriptiondomain.Subscription
	Order        *orderdomain.Order
}

var ErrInvalidBillable = errors.New("invalid_billable")

func ForSession(s sessiondomain.Session) Billable {
	return Billable{Kind: KindSession, Session: &s}
}

func ForSubscription(sub subscriptiondomain.Subscription) Billable {
	return Billable{Kind: KindSubscription, Subscription: &sub}
}

func ForOrder(o orderdomain.Order) Billable {
	return Billable{Kind: KindOrder, Order: &o}
}

func (b Billable) Validate() error {
	switch b.Kind {
	case KindSession:
		if b.Session == nil {
			return ErrInvalidBillable
		}
	case KindSubscription:
		if b.Subscription == nil {
			return ErrInvalidBillable
		}
	case KindOrder:
		if b.Order == nil {
			return ErrInvalidBillable
		}
	default:
		return ErrInvalidBillable
	}
	return nil
}

func (b Billable) ID() string {
	switch b.Kind {
	case KindSession:
		return b.Session.ID
	case KindSubscription:
		return b.Subscription.ID
	case KindOrder:
		return b.Order.ID
	}
	return ""
}

func (b Billable) ClientName() string {
	switch b.Kind {
	case KindSession:
		return b.Session.ClientName
	case KindSubscription:
		return b.Subscription.ClientName
	case KindOrder:
		return b.Order.ClientName
	}
	return ""
}

// Calculate dispatches on the tag. Sessions are priced from prices; the other
// kinds carry their own fixed price.
func Calculate(b Billable, prices PriceTable) (Charge, error) {
	if err := b.Validate(); err != nil {
		return Charge{}, err
	}
	switch b.Kind {
	case KindSession:
		return SessionCharge(*b.Session, prices), nil
	case KindSubscription:
		return SubscriptionCharge(*b.Subscription), nil
	default:
		return OrderCharge(*b.Order), nil
	}
}
