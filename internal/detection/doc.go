// Package detection finds straight lines and line segments in edge maps
// using the Hough transform.
//
// # Pipeline
//
// Run (or Runner.Run) executes the full chain on a normalized grayscale
// image:
//
//  1. Edge Detection: imaging.Canny produces a binary STRONG/NONE edge map
//  2. Voting: Vote fills a (rho, theta) Accumulator from every edge pixel
//  3. Peak Extraction: TopLines picks the highest bins with optional
//     Hough-space non-maximum suppression
//  4. Localization: Segments walks each line over the edge map and emits
//     gap-tolerant segments
//
// All tunables travel in a Params value; nothing is stored in package
// state, so concurrent runs with different settings are safe.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// A line is x·cos θ + y·sin θ = ρ with ρ >= 0 and θ in [0, 2π). Its
// direction vector is (-sin θ, cos θ); segments are reported in that order.
//
// # Determinism
//
// Peaks are ranked by votes, then rho bin, then theta bin, and parallel
// voting only sums integers, so identical inputs give identical results.
//
// # Performance Considerations
//
// Voting costs O(edgePixels × ThetaRes) and dominates run time. It is spread
// across CPUs. For large images, crop to a region of interest first or use a
// coarser ThetaRes.
package detection
