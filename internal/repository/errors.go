package repository

import "errors"

var (
	// 対象が存在しない
	ErrNotFound = errors.New("not found")

	// ユニーク制約違反（payment_intent_id / email など）
	ErrDuplicate = errors.New("duplicate")
)
