package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/hough-tools-mcp/internal/detection"
	"github.com/ironsheep/hough-tools-mcp/internal/imaging"
)

// errInvalidArguments marks tool arguments that could not be decoded.
var errInvalidArguments = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_detect_lines").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument decoding errors return -32602; other tool failures return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) (resp *MCPResponse) {
	// A failing tool must not take the stdio loop down with it.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool panicked", "err", r)
			resp = s.errorResponse(req.ID, -32603, "Internal error", fmt.Sprint(r))
		}
	}()

	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
		if errors.Is(err, errInvalidArguments) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Merges pipeline overrides onto the server defaults
//  3. Resolves the image from the cache (path or upload handle)
//  4. Calls the imaging/detection function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Region Operations
	case "image_crop":
		return s.handleImageCrop(args)

	// Edge and Hough Stages
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)
	case "image_hough_accumulator":
		return s.handleImageHoughAccumulator(args)
	case "image_detect_lines":
		return s.handleImageDetectLines(args)
	case "image_detect_segments":
		return s.handleImageDetectSegments(args)
	case "image_overlay_lines":
		return s.handleImageOverlayLines(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, tagging failures with
// errInvalidArguments. Empty arguments decode to the zero value.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.cache.Describe(a.Path)
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Resolve(a.Path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &DimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
}

// === Region Operation Handlers ===

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Resolve(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, imaging.Region{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}, a.Scale)
}

// === Edge and Hough Handlers ===

// pipelineArgs carries the image reference, an optional region and
// optional overrides of the server's default pipeline parameters.
type pipelineArgs struct {
	Path   string          `json:"path"`
	Region *imaging.Region `json:"region,omitempty"`

	Sigma            *float64        `json:"sigma,omitempty"`
	LowThreshold     *float64        `json:"low_threshold,omitempty"`
	HighThreshold    *float64        `json:"high_threshold,omitempty"`
	Border           *imaging.Border `json:"border,omitempty"`
	RhoRes           *int            `json:"rho_res,omitempty"`
	ThetaRes         *int            `json:"theta_res,omitempty"`
	Lines            *int            `json:"lines,omitempty"`
	PeakRadius       *int            `json:"peak_radius,omitempty"`
	GapTolerance     *int            `json:"gap_tolerance,omitempty"`
	LineTolerance    *float64        `json:"line_tolerance,omitempty"`
	MinSegmentLength *float64        `json:"min_segment_length,omitempty"`
}

// params merges the overrides in a onto base.
func (a pipelineArgs) params(base detection.Params) detection.Params {
	p := base
	if a.Sigma != nil {
		p.Sigma = *a.Sigma
	}
	if a.LowThreshold != nil {
		p.LowThreshold = *a.LowThreshold
	}
	if a.HighThreshold != nil {
		p.HighThreshold = *a.HighThreshold
	}
	if a.Border != nil {
		p.Border = *a.Border
	}
	if a.RhoRes != nil {
		p.RhoRes = *a.RhoRes
	}
	if a.ThetaRes != nil {
		p.ThetaRes = *a.ThetaRes
	}
	if a.Lines != nil {
		p.Lines = *a.Lines
	}
	if a.PeakRadius != nil {
		p.PeakRadius = *a.PeakRadius
	}
	if a.GapTolerance != nil {
		p.GapTolerance = *a.GapTolerance
	}
	if a.LineTolerance != nil {
		p.LineTolerance = *a.LineTolerance
	}
	if a.MinSegmentLength != nil {
		p.MinSegmentLength = *a.MinSegmentLength
	}
	return p
}

// source resolves the image and applies the optional region crop.
func (s *Server) source(a pipelineArgs) (image.Image, error) {
	img, err := s.cache.Resolve(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Region == nil {
		return img, nil
	}
	return imaging.CropRegion(img, *a.Region)
}

// analyze validates parameters, then runs the full pipeline.
func (s *Server) analyze(a pipelineArgs) (*detection.Result, image.Image, error) {
	p := a.params(s.defaults)
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	img, err := s.source(a)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.runner.Run(imaging.ToGray(img), p)
	if err != nil {
		return nil, nil, err
	}
	return res, img, nil
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p := a.params(s.defaults)
	if err := p.Canny().Validate(); err != nil {
		return nil, err
	}
	img, err := s.source(a)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, p.Canny())
}

// AccumulatorResult describes a rendered Hough accumulator.
type AccumulatorResult struct {
	imaging.EncodedImage
	Accumulator *detection.Accumulator `json:"accumulator"`
	MaxVotes    int                    `json:"max_votes"`
	TotalVotes  int                    `json:"total_votes"`
	EdgePixels  int                    `json:"edge_pixels"`
}

type imageHoughArgs struct {
	pipelineArgs
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleImageHoughAccumulator(args json.RawMessage) (interface{}, error) {
	var a imageHoughArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, _, err := s.analyze(a.pipelineArgs)
	if err != nil {
		return nil, err
	}
	acc := res.Accumulator
	img, err := imaging.CountsImage(acc.Votes, acc.RhoRes, acc.ThetaRes, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &AccumulatorResult{
		EncodedImage: *enc,
		Accumulator:  acc,
		MaxVotes:     acc.Max(),
		TotalVotes:   acc.Sum(),
		EdgePixels:   res.Edges.Count(imaging.EdgeStrong),
	}, nil
}

// LinesResult contains detected lines
type LinesResult struct {
	Lines []detection.Line `json:"lines"`
	Count int              `json:"count"`
}

func (s *Server) handleImageDetectLines(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, _, err := s.analyze(a)
	if err != nil {
		return nil, err
	}
	return &LinesResult{Lines: res.Lines, Count: len(res.Lines)}, nil
}

// SegmentResult is one segment in tool output.
type SegmentResult struct {
	Start        detection.PointF `json:"start"`
	End          detection.PointF `json:"end"`
	Length       float64          `json:"length"`
	AngleDegrees float64          `json:"angle_degrees"`
	Support      int              `json:"support"`
	Rho          float64          `json:"rho"`
	Theta        float64          `json:"theta"`
}

// SegmentsResult contains detected segments
type SegmentsResult struct {
	Segments []SegmentResult `json:"segments"`
	Count    int             `json:"count"`
}

func (s *Server) handleImageDetectSegments(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, _, err := s.analyze(a)
	if err != nil {
		return nil, err
	}
	out := make([]SegmentResult, len(res.Segments))
	for i, seg := range res.Segments {
		out[i] = SegmentResult{
			Start:        seg.Start,
			End:          seg.End,
			Length:       seg.Length(),
			AngleDegrees: seg.AngleDegrees(),
			Support:      seg.Support,
			Rho:          seg.Line.Rho,
			Theta:        seg.Line.Theta,
		}
	}
	return &SegmentsResult{Segments: out, Count: len(out)}, nil
}

type imageOverlayArgs struct {
	pipelineArgs
	Mode      string  `json:"mode"`
	Color     string  `json:"color"`
	Thickness int     `json:"thickness"`
	Labels    bool    `json:"labels"`
	Scale     float64 `json:"scale"`
}

func (s *Server) handleImageOverlayLines(args json.RawMessage) (interface{}, error) {
	var a imageOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Mode == "" {
		a.Mode = "segments"
	}
	if a.Mode != "lines" && a.Mode != "segments" {
		return nil, fmt.Errorf("%w: unknown overlay mode %q", errInvalidArguments, a.Mode)
	}

	res, img, err := s.analyze(a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	var strokes []imaging.Stroke
	if a.Mode == "lines" {
		strokes = detection.LineStrokes(res.Lines, res.Edges.Width, res.Edges.Height)
	} else {
		strokes = detection.SegmentStrokes(res.Segments)
	}

	drawn, err := imaging.Overlay(img, strokes, imaging.OverlayOptions{
		Color:     a.Color,
		Thickness: a.Thickness,
		Labels:    a.Labels,
		Scale:     a.Scale,
	})
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(drawn)
}
