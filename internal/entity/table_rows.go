package entity

import (
	"bytes"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// TableRowsRequest is the body of a get_table_rows call.
type TableRowsRequest struct {
	JSON       bool   `json:"json"`
	Code       string `json:"code"`
	Scope      string `json:"scope"`
	Table      string `json:"table"`
	Limit      int    `json:"limit"`
	LowerBound string `json:"lower_bound"`
}

// TableRowsPage is one page of a get_table_rows response.
// Rows is nil when the node omitted the field, which callers treat as malformed.
type TableRowsPage struct {
	Rows    []RawRecord `json:"rows"`
	More    bool        `json:"more"`
	NextKey Cursor      `json:"next_key"`
}

// Cursor is the pagination key returned by the node. Nodes send it either as a
// string or as a bare number depending on the index type.
type Cursor string

// UnmarshalJSON accepts a JSON string, number, or null.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cursor(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return err
	}
	*c = Cursor(data)
	return nil
}
