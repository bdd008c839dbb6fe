package warehouse

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// stringList decodes a loosely typed list column. The monitoring tables store
// owners and tags as JSON arrays, but older rows hold a bare string or a
// JSON string.
func stringList(raw sql.NullString) []string {
	out := []string{}
	s := strings.TrimSpace(raw.String)
	if !raw.Valid || s == "" {
		return out
	}
	if !gjson.Valid(s) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}

	result := gjson.Parse(s)
	if result.IsArray() {
		result.ForEach(func(_, value gjson.Result) bool {
			if v := value.String(); v != "" {
				out = append(out, v)
			}
			return true
		})
		return out
	}
	if v := result.String(); result.Type != gjson.Null && v != "" {
		out = append(out, v)
	}
	return out
}

// rawJSON returns the column as a JSON document, or nil when the column is
// empty or not valid JSON.
func rawJSON(raw sql.NullString) json.RawMessage {
	s := strings.TrimSpace(raw.String)
	if !raw.Valid || s == "" || !gjson.Valid(s) {
		return nil
	}
	return json.RawMessage(s)
}

// sampleRows returns the column only when it holds a JSON array of rows.
func sampleRows(raw sql.NullString) json.RawMessage {
	doc := rawJSON(raw)
	if doc == nil || !gjson.ParseBytes(doc).IsArray() {
		return nil
	}
	return doc
}

// jsonField reads one field out of a JSON object column, e.g. the column
// name a test was configured with inside test_params.
func jsonField(raw sql.NullString, path string) string {
	if !raw.Valid || !gjson.Valid(raw.String) {
		return ""
	}
	return gjson.Get(raw.String, path).String()
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}
