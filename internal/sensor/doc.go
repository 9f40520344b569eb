// Package sensor turns camera frames into a single scalar measurement: the
// normalized horizontal centroid of bright pixels in a small, mirrored
// processing buffer.
//
// Responsibilities: frame downsampling, luminance-centroid sampling, band
// remapping, and the camera frame collaborator interface (FrameSource).
// The sampler is pure: it never mutates shared state and has no timer of
// its own; callers sample at whatever cadence frames arrive.
package sensor
