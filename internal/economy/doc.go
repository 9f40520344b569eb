// Package economy holds the immutable session tables (difficulty presets,
// theme motion profiles, avatars) and the pure functions that map score and
// elapsed time to gravity, spawn pressure and penalties.
package economy
