// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はクライアントから送信される自由入力テキスト
// （カテゴリ名、注文メモ、支払先、氏名など）をサニタイズし、
// 保存型XSSなどのセキュリティリスクから保護する。
// bluemondayライブラリの厳格ポリシーで全てのHTMLタグを除去し、
// プレーンテキストのみを永続化させる。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は自由入力テキストのサニタイズ機能のインターフェースを定義する。
// カテゴリ・注文・経費の各サービスとサインアップのハンドラで保存前に使用される。
type TextSanitizerService interface {
	// Sanitize は入力テキストから全てのHTMLタグを除去してプレーンテキストを返す。
	// scriptタグとstyleタグはその内容ごと破棄される。
	// HTMLエンティティ（&amp; 等）は元の文字に復元される。
	// 改行とタブを除く制御文字は削除され、前後の空白は取り除かれる。
	// 空文字列の入力には空文字列を返す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// bluemondayのStrictPolicy（許可タグなし）を使用するため、
// あらゆるマークアップはテキスト内容だけを残して除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストをサニタイズしてプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	// StrictPolicyはタグを除去した上で & < > 等をエンティティにエスケープする。
	// 保存するのはプレーンテキストなのでエスケープを復元する。
	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.TrimSpace(stripControlRunes(stripped))
}

// stripControlRunes は改行とタブを除く制御文字を削除する。
// CR（\r）も削除されるため、CRLFの改行はLFに正規化される。
func stripControlRunes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
