package domain

import (
	"errors"
	"strings"
	"time"
)

type Category string

const (
	CategoryFilm     Category = "FILM"
	CategoryMusic    Category = "MUSIC"
	CategoryGame     Category = "GAME"
	CategorySoftware Category = "SOFTWARE"
)

func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(raw))) {
	case CategoryFilm:
		return CategoryFilm, true
	case CategoryMusic:
		return CategoryMusic, true
	case CategoryGame:
		return CategoryGame, true
	case CategorySoftware:
		return CategorySoftware, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

type Order struct {
	ID         string   `json:"id"`
	ClientName string   `json:"clientName"`
	Item       string   `json:"item"`
	Category   Category `json:"category"`
	Price      int64    `json:"price"`
	Status     Status   `json:"status"`
	CreatedAt  int64    `json:"createdAt,omitempty"`
}

func (o Order) Created() time.Time {
	return time.UnixMilli(o.CreatedAt)
}

type CreateOrderRequest struct {
	ClientName string
	Item       string
	Category   string
	Price      int64
}

var (
	ErrInvalidClientName = errors.New("invalid_client_name")
	ErrInvalidItem       = errors.New("invalid_item")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrNotFound          = errors.New("order_not_found")
)
