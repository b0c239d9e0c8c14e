package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
	kindTime
	kindJSON
)

// field 一个具名 hash 字段及其类型。ref 返回实体内字段的指针：
// *string、*int、*bool、*time.Time，或任意 JSON 目标
type field[T any] struct {
	name string
	kind kind
	ref  func(*T) any
}

// codec 按固定字段表在实体与扁平 hash 之间转换
type codec[T any] struct {
	fields []field[T]
	index  map[string]int
}

func newCodec[T any](fields ...field[T]) codec[T] {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.name] = i
	}
	return codec[T]{fields: fields, index: idx}
}

func str[T any](name string, ref func(*T) *string) field[T] {
	return field[T]{name: name, kind: kindString, ref: func(v *T) any { return ref(v) }}
}

func integer[T any](name string, ref func(*T) *int) field[T] {
	return field[T]{name: name, kind: kindInt, ref: func(v *T) any { return ref(v) }}
}

func boolean[T any](name string, ref func(*T) *bool) field[T] {
	return field[T]{name: name, kind: kindBool, ref: func(v *T) any { return ref(v) }}
}

func timestamp[T any](name string, ref func(*T) *time.Time) field[T] {
	return field[T]{name: name, kind: kindTime, ref: func(v *T) any { return ref(v) }}
}

func jsonField[T any](name string, ref func(*T) any) field[T] {
	return field[T]{name: name, kind: kindJSON, ref: ref}
}

func (c codec[T]) encode(v *T) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(c.fields))
	for _, f := range c.fields {
		s, err := encodeRef(f.kind, f.ref(v))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.name, err)
		}
		out[f.name] = s
	}
	return out, nil
}

// encodeValue 编码单个具名字段的值
func (c codec[T]) encodeValue(name string, value any) (string, error) {
	i, ok := c.index[name]
	if !ok {
		return "", fmt.Errorf("unknown field %q", name)
	}
	f := c.fields[i]
	switch f.kind {
	case kindString:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("field %q wants string, got %T", name, value)
		}
		return s, nil
	case kindInt:
		switch n := value.(type) {
		case int:
			return strconv.Itoa(n), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		}
		return "", fmt.Errorf("field %q wants int, got %T", name, value)
	case kindBool:
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("field %q wants bool, got %T", name, value)
		}
		return strconv.FormatBool(b), nil
	case kindTime:
		t, ok := value.(time.Time)
		if !ok {
			return "", fmt.Errorf("field %q wants time.Time, got %T", name, value)
		}
		return t.UTC().Format(time.RFC3339Nano), nil
	default:
		b, err := json.Marshal(value)
		return string(b), err
	}
}

// decode 空 hash 返回 nil
func (c codec[T]) decode(m map[string]string) (*T, error) {
	if len(m) == 0 {
		return nil, nil
	}
	v := new(T)
	for _, f := range c.fields {
		raw, ok := m[f.name]
		if !ok || raw == "" {
			continue
		}
		if err := decodeRef(f.kind, raw, f.ref(v)); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	return v, nil
}

func encodeRef(k kind, ref any) (string, error) {
	switch k {
	case kindString:
		return *ref.(*string), nil
	case kindInt:
		return strconv.Itoa(*ref.(*int)), nil
	case kindBool:
		return strconv.FormatBool(*ref.(*bool)), nil
	case kindTime:
		return ref.(*time.Time).UTC().Format(time.RFC3339Nano), nil
	default:
		b, err := json.Marshal(ref)
		return string(b), err
	}
}

func decodeRef(k kind, raw string, ref any) error {
	switch k {
	case kindString:
		*ref.(*string) = raw
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*ref.(*int) = n
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*ref.(*bool) = b
	case kindTime:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return err
		}
		*ref.(*time.Time) = t
	default:
		return json.Unmarshal([]byte(raw), ref)
	}
	return nil
}

// score 有序集合按创建时间排序
func score(t time.Time) float64 { return float64(t.UnixMilli()) }
