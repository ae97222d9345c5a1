// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, profile, pos, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeIdentityNotFound     = "IDENTITY_NOT_FOUND"
	ErrCodeProfileNotFound      = "PROFILE_NOT_FOUND"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeInvalidEmail         = "INVALID_EMAIL"
	ErrCodeWeakPassword         = "WEAK_PASSWORD"
	ErrCodeInvalidRole          = "INVALID_ROLE"
	ErrCodeLastAdmin            = "LAST_ADMIN"
	ErrCodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeExpenseNotFound      = "EXPENSE_NOT_FOUND"
	ErrCodeInvalidOrderStatus   = "INVALID_ORDER_STATUS"
	ErrCodeInvalidExpenseStatus = "INVALID_EXPENSE_STATUS"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeInvalidName          = "INVALID_NAME"
)

// NewIdentityNotFoundError は該当アカウントが存在しない場合のエラーを生成する。
// keyにはメールアドレスまたはアカウントIDを渡す。
func NewIdentityNotFoundError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeIdentityNotFound,
		Message:  fmt.Sprintf("指定されたアカウントが見つかりません: %s", key),
		Category: "profile",
		Action:   "アカウント情報を確認してください。",
	}
}

// NewProfileNotFoundError はプロファイルが見つからない場合のエラーを生成する。
func NewProfileNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("指定されたプロファイルが見つかりません: %s", id),
		Category: "profile",
		Action:   "プロファイルIDを確認してください。",
	}
}

// NewEmailTakenError はメールアドレスが既に使用されている場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、サインインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報が一致しない場合のエラーを生成する。
// アカウントの存在有無を漏らさないため、メッセージは常に同一とする。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidEmailError は無効なメールアドレスエラーを生成する。
func NewInvalidEmailError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", reason),
		Category: "validation",
		Action:   "正しいメールアドレス形式で入力してください。",
	}
}

// NewWeakPasswordError はパスワードが要件を満たさない場合のエラーを生成する。
func NewWeakPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  "パスワードは8文字以上で指定してください。",
		Category: "validation",
		Action:   "8文字以上のパスワードを設定してください。",
	}
}

// NewInvalidRoleError は未知のロールが指定された場合のエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには admin または staff を指定してください。",
	}
}

// NewLastAdminError は最後の管理者を降格・無効化しようとした場合のエラーを生成する。
func NewLastAdminError() *APIError {
	return &APIError{
		Code:     ErrCodeLastAdmin,
		Message:  "最後の管理者を変更することはできません。",
		Category: "profile",
		Action:   "先に別のプロファイルへ管理者ロールを割り当ててください。",
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカテゴリが見つかりません: %s", id),
		Category: "pos",
		Action:   "カテゴリIDを確認してください。",
	}
}

// NewOrderNotFoundError は注文未検出エラーを生成する。
func NewOrderNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("指定された注文が見つかりません: %s", id),
		Category: "pos",
		Action:   "注文IDを確認してください。",
	}
}

// NewExpenseNotFoundError は経費未検出エラーを生成する。
func NewExpenseNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeExpenseNotFound,
		Message:  fmt.Sprintf("指定された経費が見つかりません: %s", id),
		Category: "pos",
		Action:   "経費IDを確認してください。",
	}
}

// NewInvalidOrderStatusError は無効な注文状態エラーを生成する。
func NewInvalidOrderStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidOrderStatus,
		Message:  fmt.Sprintf("無効な注文状態です: %s", status),
		Category: "validation",
		Action:   "状態には open、paid、void のいずれかを指定してください。",
	}
}

// NewInvalidExpenseStatusError は無効な経費状態エラーを生成する。
func NewInvalidExpenseStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidExpenseStatus,
		Message:  fmt.Sprintf("無効な経費状態です: %s", status),
		Category: "validation",
		Action:   "状態には unpaid または paid のいずれかを指定してください。",
	}
}

// NewInvalidAmountError は金額が負の場合のエラーを生成する。
func NewInvalidAmountError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAmount,
		Message:  "金額には0以上の値を指定してください。",
		Category: "validation",
		Action:   "金額を確認して再度お試しください。",
	}
}

// NewInvalidNameError は必須の名称フィールドが空の場合のエラーを生成する。
// whatには「カテゴリ名」「支払先」など対象フィールドの表示名を渡す。
func NewInvalidNameError(what string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidName,
		Message:  fmt.Sprintf("%sを入力してください。", what),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
