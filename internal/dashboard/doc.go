// Package dashboard orchestrates the device registry for the presentation
// layer.
//
// The Controller wraps the pure registry operations with their side
// effects: every mutation saves the snapshot, records statistics, sends a
// notification and updates the last-updated time. A periodic save runs as
// a backstop. Storage failures are logged and never reach callers of the
// mutation operations.
package dashboard
