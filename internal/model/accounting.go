// Package model はドメインモデルを定義する。
package model

import "time"

// AccountingSummary は会計ダッシュボードの集計値を表す。
type AccountingSummary struct {
	OpenOrderCount    int
	PaidTotalCents    int64
	UnpaidTotalCents  int64
	ExpenseTotalCents int64
}

// Receivable は売掛（未精算の注文）の1行を表す。
type Receivable struct {
	OrderID    string
	TotalCents int64
	Note       string
	CreatedAt  time.Time
}

// Payable は買掛（未払いの経費）の1行を表す。
type Payable struct {
	ExpenseID   string
	Payee       string
	AmountCents int64
	IncurredOn  time.Time
}

// MonthlyReportRow は月次レポートの1行を表す。
// Monthは "2026-01" 形式。
type MonthlyReportRow struct {
	Month             string
	SalesTotalCents   int64
	ExpenseTotalCents int64
	NetCents          int64
}
