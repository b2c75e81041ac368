// Package temporal provides Druid granularities and intervals.
//
// Granularities come in three variants: simple tokens ("day", "hour"),
// fixed millisecond durations and ISO-8601 periods with an optional time zone.
// Intervals render to the ISO-8601 forms Druid accepts: start/end,
// start/duration, duration/end and a bare duration.
//
// Parsing and construction failures are reported as *ValueError, carrying
// exactly one message that names the offending field and value.
//
// Padding floors the start and ceils the end to multiples of a delta counted
// from the Unix epoch. A granularity's own origin is never consulted.
package temporal
