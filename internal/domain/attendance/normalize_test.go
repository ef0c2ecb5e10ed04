package attendance_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rollmark/rollmark/internal/domain/attendance"
)

func TestDecodePayload_BareArray(t *testing.T) {
	payload, err := attendance.DecodePayload([]byte(`[{"id":"S1","date":"2024-05-01"}]`))
	require.NoError(t, err)
	require.Len(t, payload.Records, 1)
	require.Nil(t, payload.Roster)
}

func TestDecodePayload_ObjectWithRecordKeys(t *testing.T) {
	for _, key := range []string{"attendance", "records", "rows"} {
		raw := []byte(`{"` + key + `":[{"id":"S1","date":"2024-05-01"}]}`)
		payload, err := attendance.DecodePayload(raw)
		require.NoError(t, err, "key %s", key)
		require.Len(t, payload.Records, 1, "key %s", key)
	}
}

func TestDecodePayload_InlineRoster(t *testing.T) {
	raw := []byte(`{
		"attendance": [{"id":"S1","date":"2024-05-01"}],
		"students": [{"id":"S1","name":"Alice"},{"id":"S2","name":"Bob"}]
	}`)
	payload, err := attendance.DecodePayload(raw)
	require.NoError(t, err)
	require.Len(t, payload.Records, 1)
	require.Len(t, payload.Roster, 2)
}

func TestDecodePayload_Malformed(t *testing.T) {
	for _, raw := range []string{`"just a string"`, `{"unrelated":{}}`, `{"attendance":"nope"}`, `42`} {
		_, err := attendance.DecodePayload([]byte(raw))
		require.ErrorIs(t, err, attendance.ErrMalformedPayload, "raw %s", raw)
	}
}

func TestDecodeRoster_Shapes(t *testing.T) {
	rows, err := attendance.DecodeRoster([]byte(`[{"id":"S1","name":"Alice"}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = attendance.DecodeRoster([]byte(`{"students_list":[{"id":"S1"}]}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = attendance.DecodeRoster([]byte(`{"nope":true}`))
	require.Error(t, err)
}

func TestNormalize_IdentifierPriority(t *testing.T) {
	obs, ok := attendance.Normalize(map[string]any{
		"register_no": " S1 ",
		"id":          "ignored",
		"date":        "2024-05-01",
	})
	require.True(t, ok)
	require.Equal(t, "S1", obs.PersonID)

	// Later aliases win only when earlier ones are empty.
	obs, ok = attendance.Normalize(map[string]any{
		"register_no": "  ",
		"studentid":   "S9",
		"date":        "2024-05-01",
	})
	require.True(t, ok)
	require.Equal(t, "S9", obs.PersonID)
}

func TestNormalize_NumericIdentifier(t *testing.T) {
	obs, ok := attendance.Normalize(map[string]any{
		"id":   float64(1042),
		"date": "2024-05-01",
	})
	require.True(t, ok)
	require.Equal(t, "1042", obs.PersonID)
}

func TestNormalize_DropsUnusableRecords(t *testing.T) {
	_, ok := attendance.Normalize(map[string]any{"date": "2024-05-01"})
	require.False(t, ok, "missing identifier")

	_, ok = attendance.Normalize(map[string]any{"id": "S1"})
	require.False(t, ok, "missing date")
}

func TestNormalize_StatusDefaultsAndLowercases(t *testing.T) {
	obs, ok := attendance.Normalize(map[string]any{"id": "S1", "date": "2024-05-01", "status": "Present"})
	require.True(t, ok)
	require.Equal(t, "present", obs.Status)

	obs, ok = attendance.Normalize(map[string]any{"id": "S1", "date": "2024-05-01"})
	require.True(t, ok)
	require.Equal(t, "present", obs.Status)

	obs, ok = attendance.Normalize(map[string]any{"id": "S1", "date": "2024-05-01", "status": "NULL"})
	require.True(t, ok)
	require.Equal(t, "present", obs.Status)
}

func TestNormalize_EmptyPeriodAndTimeAreNil(t *testing.T) {
	obs, ok := attendance.Normalize(map[string]any{
		"id": "S1", "date": "2024-05-01", "period": "  ", "time": "",
	})
	require.True(t, ok)
	require.Nil(t, obs.Period)
	require.Empty(t, obs.Time)

	obs, ok = attendance.Normalize(map[string]any{
		"id": "S1", "date": "2024-05-01", "period": "1", "time": "09:00",
	})
	require.True(t, ok)
	require.NotNil(t, obs.Period)
	require.Equal(t, "1", *obs.Period)
	require.Equal(t, "09:00", obs.Time)
}

func TestNormalizeRoster_DropsEntriesWithoutIdentifier(t *testing.T) {
	roster := attendance.NormalizeRoster([]map[string]any{
		{"id": "S1", "name": "Alice"},
		{"name": "No ID"},
		{"reg_no": "S2", "name": "Bob"},
	})
	require.Equal(t, attendance.Roster{"S1": "Alice", "S2": "Bob"}, roster)
}

func TestRoster_ExtendKeepsExplicitNames(t *testing.T) {
	roster := attendance.Roster{"S1": "Alice"}
	roster.Extend([]attendance.Observation{
		{PersonID: "S1", PersonName: "Other"},
		{PersonID: "S3", PersonName: "Carol"},
	})
	require.Equal(t, attendance.Roster{"S1": "Alice", "S3": "Carol"}, roster)
}
