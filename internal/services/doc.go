// Package services defines shared utilities consumed by the ingestion
// pipeline, the reorganizer, and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, title IDs, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is.
//   - Cancellation helpers checked between units of work.
//
// External tool clients live in subpackages (see services/sevenzip).
package services
