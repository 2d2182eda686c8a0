package catalog

// ShapeExtractor pulls book records out of one known response envelope shape.
// Extract returns nil when the shape does not match.
type ShapeExtractor struct {
	Name    string
	Extract func(response map[string]any) []Record
}

// Shapes lists the envelope shapes of list-style endpoints in priority order.
var Shapes = []ShapeExtractor{
	{Name: "docs", Extract: listField("docs", "book", "doc")},
	{Name: "list", Extract: listField("list", "book", "doc")},
}

// ExtractRecords returns the first non-empty result of Shapes, or nil.
func ExtractRecords(response map[string]any) []Record {
	for _, shape := range Shapes {
		if records := shape.Extract(response); len(records) > 0 {
			return records
		}
	}
	return nil
}

func listField(field string, wrappers ...string) func(map[string]any) []Record {
	return func(response map[string]any) []Record {
		items, ok := response[field].([]any)
		if !ok || len(items) == 0 {
			return nil
		}
		records := make([]Record, 0, len(items))
		for _, item := range items {
			if rec := unwrap(item, wrappers...); rec != nil {
				records = append(records, rec)
			}
		}
		return records
	}
}

// unwrap returns the first wrapper key holding an object, or the item itself.
func unwrap(item any, wrappers ...string) Record {
	obj, ok := item.(map[string]any)
	if !ok || obj == nil {
		return nil
	}
	for _, key := range wrappers {
		if inner, ok := obj[key].(map[string]any); ok && inner != nil {
			return Record(inner)
		}
	}
	return Record(obj)
}
