package packager

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies an item inside a package. On the wire it is either a
// string or an integer. The zero ID (empty string, or the integer 0) means
// absent.
type ID struct {
	str   string
	num   int64
	isNum bool
}

// StringID returns a string identifier.
func StringID(s string) ID { return ID{str: s} }

// NumID returns an integer identifier.
func NumID(n int64) ID { return ID{num: n, isNum: true} }

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool {
	if id.isNum {
		return id.num == 0
	}
	return id.str == ""
}

// Num returns the integer form of a numeric identifier.
func (id ID) Num() (int64, bool) {
	return id.num, id.isNum
}

// String returns the identifier as text. Items are memoized on this form,
// so the string "7" and the integer 7 name the same item.
func (id ID) String() string {
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// MarshalJSON encodes the identifier as a JSON number or string.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isNum {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

// UnmarshalJSON accepts a JSON number, string, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ID{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id %s: must be a string or an integer", data)
	}
	*id = NumID(n)
	return nil
}
