// Package testutil provides test helpers shared across strend packages.
//
// The package is organized into focused files:
//   - assert.go: assertion helpers (MustNoErr, AssertEqualSlices, etc.)
//   - fs_helpers.go: filesystem operations (WriteFile, ReadFile, MustExist)
package testutil
