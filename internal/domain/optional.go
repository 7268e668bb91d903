package domain

import (
	"database/sql"
	"encoding/json"
)

// Optional 明确区分“没有值”和“零值”，可以直接用于 Scan 和作为查询参数
type Optional[T any] struct {
	sql.Null[T]
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{sql.Null[T]{V: v, Valid: true}}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.V, o.Valid
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.Valid {
		return o.V
	}
	return fallback
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
