// Package imaging implements the edge stage of line detection: luminance
// conversion, kernel correlation, Sobel gradients, non-maximum suppression
// and hysteresis linking (Canny), plus the image plumbing around it
// (caching, cropping, PNG rendering and line overlays).
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Numeric planes (Gray) and edge maps (EdgeMap) are stored row-major with
// index y*Width+x.
//
// # Conventions
//
// Intensities are normalized to [0, 1]. Sobel Y is oriented so a positive
// response means intensity increasing upward, and orientation is
// atan(Iy/Ix), folded into (-π/2, π/2].
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other operation
// allocates its output and never modifies its inputs, so different images
// can be processed concurrently.
//
// # Error Handling
//
// Out-of-range parameters wrap ErrInvalidParameter, incompatible planes wrap
// ErrShapeMismatch and unknown upload handles wrap ErrNotFound. Parameters
// are checked before any output is allocated.
package imaging
