// Package model はドメインモデルを定義する。
package model

import "time"

// Category は商品カテゴリを表す。
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderStatus は注文の状態を表す。
type OrderStatus string

const (
	// OrderStatusOpen は未精算の注文。
	OrderStatusOpen OrderStatus = "open"
	// OrderStatusPaid は精算済みの注文。
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusVoid は取り消された注文。
	OrderStatusVoid OrderStatus = "void"
)

// Valid は既知の注文状態かどうかを返す。
func (s OrderStatus) Valid() bool {
	return s == OrderStatusOpen || s == OrderStatusPaid || s == OrderStatusVoid
}

// Order は注文（売上）を表す。
// CategoryIDが空文字の場合はカテゴリ未設定を意味する。
type Order struct {
	ID         string
	CategoryID string
	TotalCents int64
	Status     OrderStatus
	Note       string
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ExpenseStatus は経費の支払状態を表す。
type ExpenseStatus string

const (
	// ExpenseStatusUnpaid は未払いの経費。
	ExpenseStatusUnpaid ExpenseStatus = "unpaid"
	// ExpenseStatusPaid は支払済みの経費。
	ExpenseStatusPaid ExpenseStatus = "paid"
)

// Valid は既知の経費状態かどうかを返す。
func (s ExpenseStatus) Valid() bool {
	return s == ExpenseStatusUnpaid || s == ExpenseStatusPaid
}

// Expense は経費（買掛）を表す。
type Expense struct {
	ID          string
	Payee       string
	AmountCents int64
	Status      ExpenseStatus
	IncurredOn  time.Time
	Note        string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
