package adapter

import (
	"strconv"
	"strings"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
)

// field accessors never fail: a missing or mistyped value yields its zero value and ok=false.

func stringField(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func objectField(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case entity.RawRecord:
		return obj, true
	default:
		return nil, false
	}
}

// numberField accepts JSON numbers, Go numeric literals and numeric strings.
func numberField(raw map[string]any, key string) (float64, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case jsoniter.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		amount, _ := utils.ParseAsset(n)
		return amount, true
	default:
		return 0, false
	}
}

// rowID renders an "id" field of any scalar type as text.
func rowID(raw map[string]any) (string, bool) {
	v, ok := raw["id"]
	if !ok || v == nil {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case jsoniter.Number:
		return id.String(), true
	default:
		return "", false
	}
}

// symbolCode extracts the symbol code from either "precision,CODE" or a bare "CODE".
func symbolCode(raw string) string {
	if !strings.Contains(raw, ",") {
		return strings.TrimSpace(raw)
	}
	_, sym := utils.ParseSymbol(raw)
	return sym
}

func contractOrUnknown(contract string) string {
	if strings.TrimSpace(contract) == "" {
		return UnknownContract
	}
	return contract
}
