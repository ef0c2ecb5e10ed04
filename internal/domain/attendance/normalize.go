package attendance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Alias field names tried in priority order per logical field. Resolved once
// here in the normalizer, never re-derived downstream.
var (
	idFields   = []string{"register_no", "registerNo", "reg_no", "id", "studentid"}
	dateFields = []string{"date", "day"}

	recordKeys = []string{"attendance", "records", "rows"}
	rosterKeys = []string{"students", "students_list"}
)

// Payload is a decoded remote attendance response: the raw attendance rows
// plus an optional inline roster.
type Payload struct {
	Records []map[string]any
	Roster  []map[string]any
}

// DecodePayload accepts a bare JSON array, or an object carrying the array
// under one of the recognized record keys. An inline roster may ride along
// under a roster key. Anything else is a malformed payload.
func DecodePayload(raw []byte) (Payload, error) {
	if records, ok := decodeArray(raw); ok {
		return Payload{Records: records}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Payload{}, ErrMalformedPayload
	}

	var p Payload
	for _, key := range recordKeys {
		if inner, ok := obj[key]; ok {
			if records, ok := decodeArray(inner); ok {
				p.Records = records
				break
			}
		}
	}
	if p.Records == nil {
		return Payload{}, ErrMalformedPayload
	}
	for _, key := range rosterKeys {
		if inner, ok := obj[key]; ok {
			if roster, ok := decodeArray(inner); ok {
				p.Roster = roster
				break
			}
		}
	}
	return p, nil
}

// DecodeRoster accepts a bare JSON array, or an object carrying the array
// under a recognized roster or record key.
func DecodeRoster(raw []byte) ([]map[string]any, error) {
	if rows, ok := decodeArray(raw); ok {
		return rows, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("roster payload must be an array")
	}
	for _, key := range append(append([]string{}, rosterKeys...), recordKeys...) {
		if inner, ok := obj[key]; ok {
			if rows, ok := decodeArray(inner); ok {
				return rows, nil
			}
		}
	}
	return nil, fmt.Errorf("roster payload must be an array")
}

func decodeArray(raw []byte) ([]map[string]any, bool) {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	rows := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows, true
}

// Normalize turns one raw remote record into an Observation. Records without
// a resolvable person identifier or date are unusable and reported false;
// they are dropped silently, not errors.
func Normalize(raw map[string]any) (Observation, bool) {
	id := pickString(raw, idFields...)
	date := pickString(raw, dateFields...)
	if id == "" || date == "" {
		return Observation{}, false
	}

	obs := Observation{
		PersonID:   id,
		PersonName: pickString(raw, "name"),
		Date:       date,
		Time:       pickString(raw, "time"),
	}
	if p := pickString(raw, "period"); p != "" {
		obs.Period = &p
	}

	status := strings.ToLower(pickString(raw, "status"))
	if status == "" || status == "null" {
		status = StatusPresent
	}
	obs.Status = status

	return obs, true
}

// Roster maps person identifiers to best-effort names for one run.
type Roster map[string]string

// NormalizeRoster builds a roster from explicit roster records. Entries
// without an identifier are dropped.
func NormalizeRoster(rows []map[string]any) Roster {
	roster := make(Roster, len(rows))
	for _, row := range rows {
		id := pickString(row, idFields...)
		if id == "" {
			continue
		}
		if _, ok := roster[id]; !ok {
			roster[id] = pickString(row, "name")
		}
	}
	return roster
}

// Extend adds every identifier seen in the observations as a known person,
// keeping names already supplied by an explicit roster. With no roster source
// this is the implicit roster: only people observed at least once are known.
func (r Roster) Extend(observations []Observation) {
	for _, obs := range observations {
		if _, ok := r[obs.PersonID]; !ok {
			r[obs.PersonID] = obs.PersonName
		}
	}
}

// pickString returns the first non-empty, trimmed, stringified value among
// the given keys. Numeric identifiers are common in remote payloads.
func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			s = t.String()
		case bool:
			continue
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
