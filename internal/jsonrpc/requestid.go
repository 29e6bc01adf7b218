package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestID is a JSON-RPC request identifier: a string or a number on the
// wire. The zero value marshals as null.
type RequestID struct {
	str  string
	num  int64
	fnum float64
	kind idKind
}

type idKind uint8

const (
	idNull idKind = iota
	idString
	idInt
	idFloat
)

// NewStringID builds a string-typed request ID.
func NewStringID(s string) *RequestID { return &RequestID{str: s, kind: idString} }

// NewIntID builds a number-typed request ID.
func NewIntID(n int64) *RequestID { return &RequestID{num: n, kind: idInt} }

// IsNil reports whether the ID is absent or null.
func (id *RequestID) IsNil() bool { return id == nil || id.kind == idNull }

// String renders the ID for logging. Null IDs render as the empty string.
func (id *RequestID) String() string {
	if id == nil {
		return ""
	}
	switch id.kind {
	case idString:
		return id.str
	case idInt:
		return strconv.FormatInt(id.num, 10)
	case idFloat:
		return strconv.FormatFloat(id.fnum, 'g', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler.
func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id == nil {
		return []byte("null"), nil
	}
	switch id.kind {
	case idString:
		return json.Marshal(id.str)
	case idInt:
		return json.Marshal(id.num)
	case idFloat:
		return json.Marshal(id.fnum)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Integral numbers are kept as
// int64 so they round-trip without a trailing ".0".
func (id *RequestID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		id.kind = idNull
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num == float64(int64(num)) {
			id.num = int64(num)
			id.kind = idInt
		} else {
			id.fnum = num
			id.kind = idFloat
		}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		id.str = str
		id.kind = idString
		return nil
	}

	return fmt.Errorf("JSON-RPC ID must be a string or number, got: %s", string(data))
}
