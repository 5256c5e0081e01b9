package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the image reference accepted by every tool.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file, or a handle returned by an upload",
}

// pipelineProperties returns the optional pipeline overrides shared by the
// detection tools. Omitted values use the server defaults.
func pipelineProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty,
		"region": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"description": "Optional region to analyze. Results are relative to its top-left corner.",
		},
		"sigma": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian smoothing standard deviation (> 0). Default 2",
		},
		"low_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Hysteresis low threshold on gradient magnitude of the [0,1] image. Default 0.1",
		},
		"high_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Hysteresis high threshold (>= low_threshold). Default 0.3",
		},
		"border": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"suppress", "replicate"},
			"description": "Non-maximum suppression border policy. Default suppress",
		},
		"rho_res": map[string]interface{}{
			"type":        "integer",
			"description": "Number of rho bins over [0, image diagonal). Default 100",
		},
		"theta_res": map[string]interface{}{
			"type":        "integer",
			"description": "Number of theta bins over a full turn. Default 360",
		},
		"lines": map[string]interface{}{
			"type":        "integer",
			"description": "Number of accumulator peaks to report. Default 20",
		},
		"peak_radius": map[string]interface{}{
			"type":        "integer",
			"description": "Hough-space suppression radius in bins; 0 disables. Default 2",
		},
		"gap_tolerance": map[string]interface{}{
			"type":        "integer",
			"description": "Largest gap in pixels bridged inside one segment. Default 3",
		},
		"line_tolerance": map[string]interface{}{
			"type":        "number",
			"description": "Perpendicular distance in pixels for an edge pixel to support a line. Default 1.5",
		},
		"min_segment_length": map[string]interface{}{
			"type":        "number",
			"description": "Shortest segment reported, in pixels. Default 10",
		},
	}
}

// withProperties returns base plus extra properties.
func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Region Operations
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to inspect where lines were found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1":   map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
					"y1":   map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
					"x2":   map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
					"y2":   map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Edge and Hough Stages
		{
			Name:        "image_edge_detect",
			Description: "Run Canny edge detection (Gaussian blur, Sobel, non-maximum suppression, hysteresis) and return the binary edge map as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pipelineProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_hough_accumulator",
			Description: "Compute the Hough (rho, theta) vote accumulator of the edge map and return it as a grayscale base64 PNG with rows = rho bins and columns = theta bins.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"width":  map[string]interface{}{"type": "integer", "description": "Optional output width; defaults to theta_res"},
					"height": map[string]interface{}{"type": "integer", "description": "Optional output height; defaults to rho_res"},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_detect_lines",
			Description: "Detect the strongest straight lines as (rho, theta) pairs using the Hough transform.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pipelineProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_detect_segments",
			Description: "Detect line segments: Hough lines localized to the stretches backed by edge pixels, with endpoints and lengths.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pipelineProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_overlay_lines",
			Description: "Draw detected lines or segments on the image and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"lines", "segments"},
						"description": "Draw full lines or only segments. Default segments",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Hex stroke color (e.g. #FF0000). Default: one hue per stroke",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Stroke width in pixels. Default 1",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Number each stroke. Default false",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Enlarge the image before drawing. Default 1.0",
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
