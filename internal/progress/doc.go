// Package progress defines the progress events emitted while games are
// extracted, consolidated, and reorganized, plus the percentage bands each
// phase occupies.
package progress
