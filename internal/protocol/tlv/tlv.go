// Package tlv is a compact type-length-value codec sized for small queue
// messages: each field carries a 3-byte header and at most 255 value bytes.
package tlv

import (
	"errors"
	"fmt"
)

const (
	HeaderLen   = 3
	MaxValueLen = 0xFF
)

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrValueTooLarge    = errors.New("tlv: field value too large")
)

// Type IDs.
const (
	TypeU8     uint8 = 1
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
)

// Field is one decoded TLV field.
type Field struct {
	ID    uint8
	Type  uint8
	Value []byte
}

// Len is the encoded size of f.
func (f Field) Len() int {
	return HeaderLen + len(f.Value)
}

func EncodeField(f Field) ([]byte, error) {
	if len(f.Value) > MaxValueLen {
		return nil, fmt.Errorf("%w: field %d has %d bytes", ErrValueTooLarge, f.ID, len(f.Value))
	}
	buf := make([]byte, f.Len())
	buf[0] = f.ID
	buf[1] = f.Type
	buf[2] = uint8(len(f.Value))
	copy(buf[HeaderLen:], f.Value)
	return buf, nil
}

func EncodeFields(fields []Field) ([]byte, error) {
	out := make([]byte, 0, EncodedLen(fields))
	for _, f := range fields {
		b, err := EncodeField(f)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// EncodedLen sums the encoded size of fields.
func EncodedLen(fields []Field) int {
	n := 0
	for _, f := range fields {
		n += f.Len()
	}
	return n
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0, 1)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := payload[i]
		typeID := payload[i+1]
		l := int(payload[i+2])
		i += HeaderLen
		if len(payload)-i < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+l])
		i += l
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

func GetField(fields []Field, id uint8) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("tlv: field %d type mismatch: got %d want %d", f.ID, f.Type, expected)
	}
	return nil
}
