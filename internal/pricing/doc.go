// Package pricing holds the regional price learning and extrapolation math.
//
// Everything here is a pure function over value objects from the model
// package: reducing an imported estimate to tax and O&P rates, matching its
// lines to a cost book by exact category/selection key, summarizing the
// resulting price variances per category, scoring confidence, and composing a
// localized unit price from a stored snapshot. Reading and writing snapshots is
// the job of the engine and storage packages.
//
// Every rate that would divide by zero is reported as 0. "No data" is a
// neutral result, never an error.
package pricing
