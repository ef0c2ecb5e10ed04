package attendance

import "errors"

var (
	// ErrNoSourceConfigured is returned when no attendance source URL is set
	ErrNoSourceConfigured = errors.New("no attendance source URL configured")

	// ErrMalformedPayload is returned when the remote payload does not
	// normalize to an array of records
	ErrMalformedPayload = errors.New("attendance payload must be an array")

	// ErrInvalidEdit is returned when a manual edit is missing required fields
	ErrInvalidEdit = errors.New("person, date and status are required")

	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrNoValidRows is returned when a bulk upload contains no usable rows
	ErrNoValidRows = errors.New("no valid rows to append")
)
