// Package validation は保存前の入力値の正規化と検証を提供する。
//
// サニタイズ（前後の空白除去・NUL除去・最大長での切り詰め）を先に行い、
// その結果に対して検証ルールを適用する。最大長を超える入力は拒否せず
// 切り詰めてから再検証する。
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/security"
)

const (
	// MaxTitleLength はタイトルの最大文字数。
	MaxTitleLength = 200
	// MaxDescriptionLength は説明の最大文字数。
	MaxDescriptionLength = 1000
	// MaxNameLength は表示名（姓・名）の最大文字数。
	MaxNameLength = 50
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 8
	// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
	MaxPasswordBytes = 72
	// PasswordSymbols はパスワードに含めるべき記号の集合。
	PasswordSymbols = `!@#$%^&*(),.?":{}|<>`
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// パスワードルールのメッセージ。失敗したものはすべてまとめて返す。
const (
	MsgPasswordTooShort  = "パスワードは8文字以上で入力してください"
	MsgPasswordUppercase = "パスワードには大文字を1文字以上含めてください"
	MsgPasswordLowercase = "パスワードには小文字を1文字以上含めてください"
	MsgPasswordDigit     = "パスワードには数字を1文字以上含めてください"
	MsgPasswordSymbol    = "パスワードには記号（" + PasswordSymbols + "）を1文字以上含めてください"
	MsgPasswordTooLong   = "パスワードは72バイト以内で入力してください"
)

// Validator はタスクおよび認証情報の入力検証を行う。
type Validator struct {
	markup security.MarkupDetector
}

// New はValidatorを生成する。
func New(markup security.MarkupDetector) *Validator {
	return &Validator{markup: markup}
}

// SanitizeText は前後の空白とNULバイトを除去し、maxLength文字に切り詰める。
func SanitizeText(text string, maxLength int) string {
	s := strings.ReplaceAll(text, "\x00", "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxLength {
		s = string([]rune(s)[:maxLength])
		// 切り詰めにより末尾に空白が残る場合がある
		s = strings.TrimRightFunc(s, unicode.IsSpace)
	}
	return s
}

// Title はタイトルをサニタイズして検証する。
// 問題がなければサニタイズ済みの値と空のスライスを返す。
func (v *Validator) Title(title string) (string, []string) {
	s := SanitizeText(title, MaxTitleLength)

	var errs []string
	if s == "" {
		errs = append(errs, "タイトルは必須です")
	} else if utf8.RuneCountInString(s) > MaxTitleLength {
		errs = append(errs, fmt.Sprintf("タイトルは%d文字以内で入力してください", MaxTitleLength))
	}
	if v.markup.ContainsMarkup(s) {
		errs = append(errs, "タイトルに使用できない文字列（HTMLタグやスクリプト）が含まれています")
	}
	return s, errs
}

// Description は説明をサニタイズして検証する。空文字列は許可する。
func (v *Validator) Description(description string) (string, []string) {
	s := SanitizeText(description, MaxDescriptionLength)

	var errs []string
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		errs = append(errs, fmt.Sprintf("説明は%d文字以内で入力してください", MaxDescriptionLength))
	}
	if v.markup.ContainsMarkup(s) {
		errs = append(errs, "説明に使用できない文字列（HTMLタグやスクリプト）が含まれています")
	}
	return s, errs
}

// Status はステータス文字列を検証する。
func (v *Validator) Status(status string) (model.TaskStatus, []string) {
	st := model.TaskStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return "", []string{"ステータスは pending または completed のいずれかを指定してください"}
	}
	return st, nil
}

// NormalizeEmail はメールアドレスの前後の空白を除去し小文字化する。
// 検索キーおよび保存値として使用する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Email はメールアドレスを正規化して検証する。
func (v *Validator) Email(email string) (string, []string) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return normalized, []string{"メールアドレスは必須です"}
	}
	if !emailPattern.MatchString(normalized) {
		return normalized, []string{"メールアドレスの形式が正しくありません"}
	}
	return normalized, nil
}

// Password はサインアップ時のパスワード強度を検証する。
// 失敗したルールはすべてまとめて返す。
func (v *Validator) Password(password string) []string {
	if password == "" {
		return []string{"パスワードは必須です"}
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	var errs []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}
	if !hasUpper {
		errs = append(errs, MsgPasswordUppercase)
	}
	if !hasLower {
		errs = append(errs, MsgPasswordLowercase)
	}
	if !hasDigit {
		errs = append(errs, MsgPasswordDigit)
	}
	if !hasSymbol {
		errs = append(errs, MsgPasswordSymbol)
	}
	if len(password) > MaxPasswordBytes {
		errs = append(errs, MsgPasswordTooLong)
	}
	return errs
}

// Name は表示名をトリムしMaxNameLength文字に切り詰める。
func Name(name string) string {
	return SanitizeText(name, MaxNameLength)
}
