package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// rowToMap converts a decoded result row into a plain map ready for JSON
// responses, converting driver-native types as it goes. ObjectIDs are always
// rendered as hex strings, never as a binary identifier type.
func rowToMap(row bson.D) map[string]any {
	out := make(map[string]any, len(row))
	for _, elem := range row {
		out[elem.Key] = Sanitize(elem.Value)
	}
	return out
}

// Sanitize recursively replaces BSON-native values with JSON-friendly ones.
func Sanitize(value any) any {
	switch v := value.(type) {
	case bson.ObjectID:
		return v.Hex()
	case bson.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case bson.Decimal128:
		return v.String()
	case bson.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = Sanitize(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, Sanitize(item))
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, Sanitize(item))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Sanitize(item)
		}
		return out
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return value
	}
}
