// Package amplification reads instrument amplification exports into typed
// readings.
//
// Two sources are supported:
//
//   - QuantStudio workbooks (.xlsx), read with excelize from a named sheet
//   - delimited exports (.csv comma separated, .txt tab separated)
//
// Both produce the same raw cell grid, which is decoded by one routine: a
// configurable number of leading metadata rows is skipped, the next row is
// taken as the header and discarded, and every remaining non-blank row must
// fit the six-column layout
//
//	Run, Well, Cycle, Sample, Fluorescence, DeltaRn
//
// Columns are matched by position, never by header text. A table wider or
// narrower than six columns, a cycle that is not an integer of 1 or more, or a
// numeric cell that does not parse aborts the load with an INPUT_SHAPE error
// that names the offending row and column.
//
// Empty Sample and DeltaRn cells are kept as absent values; deciding what to
// do with them belongs to the scoring pipeline.
package amplification
