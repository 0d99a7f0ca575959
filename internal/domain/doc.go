// Package domain models the wire format of raw sensor reading batches.
//
// # Data source
//
// Station gateways buffer readings locally and publish one JSON batch per
// flush to the Kafka source topic:
//
//	{
//	  "station": "ps-004",
//	  "sent_at": "2019-10-27T03:00:00Z",
//	  "readings": [
//	    {"time": "2019-10-27 01:45:00", "type": "flow", "value": 12.5},
//	    {"time": 1572137100, "type": "flow", "value": null}
//	  ]
//	}
//
// # Wire conventions
//
// Timestamps:
//
//	Either a datetime string (RFC 3339 or "YYYY-MM-DD HH:MM:SS", read as
//	UTC) or a bare integer of POSIX epoch seconds. Older gateway firmware
//	sends local wall-clock strings without a zone, which is why the
//	pipeline runs the wintertime de-duplication before gridding.
//
// Values:
//
//	A JSON number, or null for a reading whose measurement failed (sensor
//	fault, transmission glitch). Null values survive as NaN and become
//	empty grid bins. A batch in which no reading carries a value field at
//	all is malformed and rejected with a schema error, as is any reading
//	without a time.
//
// Batches are independent: the pipeline regularizes each batch on its own
// grid derived from the batch's readings (or the configured fixed bounds)
// and publishes one output event per input batch.
package domain
