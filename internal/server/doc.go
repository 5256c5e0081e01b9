// Package server exposes the line detection pipeline over MCP (Model Context
// Protocol) and over a small HTTP API.
//
// # Protocol
//
// The MCP server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Region Operations:
//   - image_crop: Extract rectangular region
//
// Edge and Hough Stages:
//   - image_edge_detect: Canny edge map as PNG
//   - image_hough_accumulator: Vote table rendered as PNG
//   - image_detect_lines: Strongest (rho, theta) lines
//   - image_detect_segments: Finite segments along those lines
//   - image_overlay_lines: Lines or segments drawn on the image
//
// Every pipeline tool accepts the tunables of detection.Params (sigma,
// thresholds, accumulator resolution, ...) and an optional region. Omitted
// values fall back to the defaults the server was created with.
//
// # HTTP API
//
// Handler serves the same stages for uploaded images; see Handler for the
// route table. Uploaded images are addressed by an opaque id.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path (or upload id) and reused across calls for the lifetime of the
// process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for undecodable arguments, -32000 for tool failures
//   - message: Human-readable error description
//   - data: The Go error string
//
// The HTTP API maps invalid parameters to 400 and unknown images to 404.
//
// # Usage
//
//	srv := server.New(detection.DefaultParams(), logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
