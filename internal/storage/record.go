package storage

import "encoding/json"

// Record is the metadata envelope wrapped around every persisted value.
// Value holds the processed payload: JSON, optionally compressed and/or
// encrypted (each stage base64-encoded when it produces binary data).
type Record struct {
	Value      string `json:"value"`
	Timestamp  int64  `json:"timestamp"` // unix milliseconds
	Version    string `json:"version"`
	Encrypted  bool   `json:"encrypted"`
	Compressed bool   `json:"compressed"`
}

// ParsedKind tags the three shapes a stored string can take. Data written
// before the envelope was introduced is still readable: valid JSON that is
// not an envelope is Legacy, anything else is Raw.
type ParsedKind int

const (
	ParsedEnveloped ParsedKind = iota
	ParsedLegacy
	ParsedRaw
)

// Parsed is the result of classifying a raw stored string.
type Parsed struct {
	Kind   ParsedKind
	Record Record // populated for ParsedEnveloped
	Raw    string // the original stored string, always populated
}

// ParseRecord classifies raw. It never fails: unrecognizable input is
// reported as ParsedRaw so legacy data cannot make a read throw.
func ParseRecord(raw string) Parsed {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err == nil {
		_, hasValue := probe["value"]
		_, hasTimestamp := probe["timestamp"]
		if hasValue && hasTimestamp {
			var rec Record
			if err := json.Unmarshal([]byte(raw), &rec); err == nil {
				return Parsed{Kind: ParsedEnveloped, Record: rec, Raw: raw}
			}
		}
		return Parsed{Kind: ParsedLegacy, Raw: raw}
	}
	if json.Valid([]byte(raw)) {
		// Non-object JSON (array, number, quoted string).
		return Parsed{Kind: ParsedLegacy, Raw: raw}
	}
	return Parsed{Kind: ParsedRaw, Raw: raw}
}
