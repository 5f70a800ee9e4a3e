// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MarkupDetector はタスクのタイトルや説明に埋め込まれたHTMLタグや
// スクリプト的な記述を検出する。保存前に拒否することで、
// フロントエンドでのXSSを防ぐ。
package security

import (
	"html"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// scriptPattern はタグとして解釈されない形でも危険とみなす記述。
// javascript:スキーム、インラインイベントハンドラ属性（onclick= 等）、
// 閉じていないscript/iframeタグを対象とする。
var scriptPattern = regexp.MustCompile(`(?i)<\s*script|<\s*iframe|javascript\s*:|\bon[a-z]+\s*=`)

// MarkupDetector はプレーンテキストとして扱うべき入力にマークアップが含まれるかを判定する。
type MarkupDetector interface {
	// ContainsMarkup はテキストにHTMLタグまたはスクリプト的な記述が含まれる場合にtrueを返す。
	ContainsMarkup(text string) bool
}

// markupDetector はMarkupDetectorの実装。
// bluemondayのStrictPolicy（全タグ除去）を通した結果が元の文字列と
// 一致しない場合、タグが含まれていたと判断する。
type markupDetector struct {
	policy *bluemonday.Policy
}

// NewMarkupDetector はMarkupDetectorの新しいインスタンスを生成する。
// bluemondayのポリシーはスレッドセーフなため、1つのインスタンスを共有してよい。
func NewMarkupDetector() MarkupDetector {
	return &markupDetector{
		policy: bluemonday.StrictPolicy(),
	}
}

// ContainsMarkup はテキストにHTMLタグまたはスクリプト的な記述が含まれる場合にtrueを返す。
func (d *markupDetector) ContainsMarkup(text string) bool {
	if text == "" {
		return false
	}
	if scriptPattern.MatchString(text) {
		return true
	}

	// StrictPolicyは文字参照を解釈したうえでエスケープし直すため、両辺を同じ形に戻して比較する
	stripped := html.UnescapeString(d.policy.Sanitize(text))
	return stripped != html.UnescapeString(text)
}
