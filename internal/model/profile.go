// Package model はドメインモデルを定義する。
package model

import "time"

// Role はプロファイルに割り当てられる役割を表す。
type Role string

const (
	// RoleAdmin は管理者。会計モジュールと管理操作の全権限を持つ。
	RoleAdmin Role = "admin"
	// RoleStaff は店舗スタッフ。レジ業務（カタログ管理）のみ許可される。
	RoleStaff Role = "staff"
)

// Valid は既知のロールかどうかを返す。
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Identity は認証プロバイダーが所有するアカウントを表す。
// ロール情報は保持しない。ロールはProfileが持つ。
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はアプリケーションが所有するユーザープロファイルを表す。
// IDはIdentity.IDと同一（1:1対応、独立採番しない）。
// emailはidentities.emailのミラーで、結果整合性で同期される。
type Profile struct {
	ID        string
	Email     string
	FullName  string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
