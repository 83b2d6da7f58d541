// Package optional 区分部分更新里的 "字段缺省" / "显式 null" / "有值"
package optional

import (
	"bytes"
	"encoding/json"
)

type Optional[T any] struct {
	Set   bool // JSON 中出现了该 key
	Null  bool // 值为 null
	Value T
}

func Of[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

// Present 出现且非 null
func (o Optional[T]) Present() bool { return o.Set && !o.Null }

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
