// Package world holds the per-session simulation state and its single
// mutating operation, Step: advance falling objects, spawn, resolve paddle
// collisions, fold the economy, and detect the terminal transition.
//
// A World is not safe for concurrent Step calls; Snapshot may be called
// from any goroutine.
package world
