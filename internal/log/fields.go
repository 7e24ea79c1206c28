// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID     = "run_id"
	FieldStationID = "station_id"
	FieldRegion    = "region"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldDataType  = "data_type"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
