package types

import (
	"strconv"
	"strings"
)

// LookupKey is either a surrogate id or a human readable document number.
type LookupKey struct {
	ID   SnowflakeID
	Code string
}

func ByID(id SnowflakeID) LookupKey { return LookupKey{ID: id} }
func ByCode(code string) LookupKey  { return LookupKey{Code: code} }

func (k LookupKey) IsID() bool { return k.ID != 0 }

func (k LookupKey) String() string {
	if k.IsID() {
		return k.ID.String()
	}
	return k.Code
}

// ParseLookupKey treats a purely numeric string as a surrogate key and any
// other string as a document number.
func ParseLookupKey(raw string) (LookupKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LookupKey{}, &ValidationError{Field: "id", Reason: "identifier is required"}
	}
	if isDigits(raw) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id == 0 {
			return LookupKey{}, &ValidationError{Field: "id", Reason: "identifier out of range"}
		}
		return ByID(SnowflakeID(id)), nil
	}
	return ByCode(strings.ToUpper(raw)), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
