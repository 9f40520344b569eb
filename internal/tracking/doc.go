// Package tracking owns the position-estimation half of the pipeline.
//
// Responsibilities: the scalar Kalman filter that smooths centroid
// measurements into a paddle position, the vision pipeline that pulls
// frames from a sensor.FrameSource and publishes the newest estimate, and
// bounded innovation diagnostics.
// Key types: Kalman1D, Position, VisionPipeline, Diagnostics.
//
// The estimate depends only on the previous estimate and the newest
// measurement; diagnostics are read-only and never feed back.
package tracking
