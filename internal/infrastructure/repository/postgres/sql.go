package postgres

import (
	"database/sql"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullInt64Ptr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func nullBoolPtr(value sql.NullBool) *bool {
	if !value.Valid {
		return nil
	}
	v := value.Bool
	return &v
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time.UTC()
	return &v
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := value.UTC()
	return &v
}

// rawJSON keeps upstream payloads valid for JSONB columns.
func rawJSON(raw []byte) string {
	if len(raw) == 0 || !jsoniter.Valid(raw) {
		return "{}"
	}
	return string(raw)
}

func encodeStringMap(value map[string]string) (string, error) {
	if len(value) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeStringMap(raw string) map[string]string {
	out := map[string]string{}
	if raw == "" {
		return out
	}
	if err := jsoniter.UnmarshalFromString(raw, &out); err != nil {
		return map[string]string{}
	}
	return out
}

func encodeJSONMap(value map[string]any) (string, error) {
	if len(value) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" || raw == "{}" {
		return nil
	}
	out := map[string]any{}
	if err := jsoniter.UnmarshalFromString(raw, &out); err != nil {
		return nil
	}
	return out
}
