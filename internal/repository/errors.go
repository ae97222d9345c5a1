// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrConflict は一意制約違反を表す型付きセンチネルエラー。
// 呼び出し側はエラーメッセージの文字列照合ではなくerrors.Isで判定する。
var ErrConflict = errors.New("repository: unique constraint violation")

// ErrNotFound は更新・削除の対象行が存在しなかったことを表す。
// 点検索（FindByXxx）は従来どおり(nil, nil)を返し、このエラーは使わない。
var ErrNotFound = errors.New("repository: record not found")

// uniqueViolationCode はPostgreSQLの一意制約違反を示すSQLSTATE。
const uniqueViolationCode = "23505"

// translateError はドライバ固有のエラーをリポジトリ層のエラーへ正規化する。
// 一意制約違反はErrConflictに変換し、それ以外はそのまま返す。
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return ErrConflict
	}
	return err
}
