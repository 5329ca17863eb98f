// Package scoring turns amplification readings into per-well quality scores.
//
// A batch runs in one forward pass:
//
//  1. Filter drops readings without a deltaRn, a sample name or a well.
//  2. Group partitions the rest by raw well identifier in first-appearance
//     order and stable-sorts each well by cycle.
//  3. ExtractFeatures computes the curve amplitude, the baseline noise over
//     the first cycles and the steepest slope of the deltaRn series.
//  4. A Scorer maps the features to a score and a classification band.
//  5. The results are collected in grouper order and summarised.
//
// Two scorers exist. The continuous model normalises each feature against a
// calibration range, weights the three sub-scores into a 0-10 score rounded
// to one decimal, and classifies it into ten bands. The discrete model counts
// how many of three thresholds a well passes and classifies the 0-3 count
// into four bands. A batch always uses exactly one of them.
//
// Features that cannot be computed are NaN. They contribute nothing to the
// score and the result is marked degenerate; they never abort the batch.
//
// Per-well work runs on a bounded errgroup. Every worker writes to its own
// index of a pre-sized slice, so output order never depends on scheduling.
package scoring
