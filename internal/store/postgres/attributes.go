package postgres

import "encoding/json"

func attributesToJSON(attrs map[string]map[string]string) []byte {
	if attrs == nil {
		attrs = map[string]map[string]string{}
	}
	b, _ := json.Marshal(attrs)
	return b
}

func attributesFromJSON(raw []byte) map[string]map[string]string {
	attrs := map[string]map[string]string{}
	if len(raw) == 0 {
		return attrs
	}
	_ = json.Unmarshal(raw, &attrs)
	return attrs
}
