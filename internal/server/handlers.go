package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ironsheep/pgm-stego/internal/imaging"
	"github.com/ironsheep/pgm-stego/internal/pgm"
	"github.com/ironsheep/pgm-stego/internal/stego"
	"github.com/ironsheep/pgm-stego/internal/tokens"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "stego_embed", "pgm_info").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	text, err := marshalResult(result)
	if err != nil {
		s.logger.Error("tool result not encodable", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32603, "Internal error", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads rasters through the cache as needed
//  4. Calls the appropriate stego/imaging/tokens function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Steganography
	case "stego_embed":
		return s.handleStegoEmbed(args)
	case "stego_extract":
		return s.handleStegoExtract(args)
	case "stego_run":
		return s.handleStegoRun(args)

	// Raster Information
	case "pgm_info":
		return s.handlePGMInfo(args)
	case "pgm_sample":
		return s.handlePGMSample(args)
	case "pgm_compare":
		return s.handlePGMCompare(args)

	// Rendering
	case "pgm_preview":
		return s.handlePGMPreview(args)
	case "pgm_bit_plane":
		return s.handlePGMBitPlane(args)

	// Token Scanning
	case "tokens_scan":
		return s.handleTokensScan(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// marshalResult converts a tool result to a pretty-printed JSON string.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// dimensionArgs is embedded by every argument struct that decodes rasters.
type dimensionArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// resolve returns the requested dimensions, or the server default when
// neither is given.
func (d dimensionArgs) resolve(def pgm.Dimensions) (pgm.Dimensions, error) {
	if d.Width == 0 && d.Height == 0 {
		return def, nil
	}
	dims := pgm.Dimensions{Width: d.Width, Height: d.Height}
	if !dims.Valid() {
		return dims, fmt.Errorf("invalid dimensions %s", dims)
	}
	return dims, nil
}

func (s *Server) pipelineFor(d dimensionArgs) (*stego.Pipeline, error) {
	dims, err := d.resolve(s.dims)
	if err != nil {
		return nil, err
	}
	return stego.NewPipeline(dims, s.logger).WithCache(s.cache), nil
}

func (s *Server) load(path string, d dimensionArgs) (*pgm.Raster, error) {
	dims, err := d.resolve(s.dims)
	if err != nil {
		return nil, err
	}
	return s.cache.Load(path, dims)
}

// === Steganography Handlers ===

type stegoEmbedArgs struct {
	CoverPath  string `json:"cover_path"`
	SecretPath string `json:"secret_path"`
	OutputPath string `json:"output_path"`
	dimensionArgs
}

type stegoEmbedResult struct {
	CompositePath   string                    `json:"composite_path"`
	Dimensions      pgm.Dimensions            `json:"dimensions"`
	Digest          string                    `json:"digest"`
	CoverDistortion *imaging.DistortionResult `json:"cover_distortion"`
}

func (s *Server) handleStegoEmbed(args json.RawMessage) (interface{}, error) {
	var a stegoEmbedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.dimensionArgs)
	if err != nil {
		return nil, err
	}

	cover, err := p.LoadCover(a.CoverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load cover image: %w", err)
	}
	secret, err := p.LoadSecret(a.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret image: %w", err)
	}
	composite, err := p.EmbedAndSave(cover, secret, a.OutputPath)
	if err != nil {
		return nil, err
	}

	distortion, err := imaging.CompareRasters(cover, composite)
	if err != nil {
		return nil, err
	}
	return &stegoEmbedResult{
		CompositePath:   a.OutputPath,
		Dimensions:      composite.Dimensions(),
		Digest:          imaging.Digest(composite),
		CoverDistortion: distortion,
	}, nil
}

type stegoExtractArgs struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	dimensionArgs
}

type stegoExtractResult struct {
	RecoveredPath string         `json:"recovered_path"`
	Dimensions    pgm.Dimensions `json:"dimensions"`
	Digest        string         `json:"digest"`
}

func (s *Server) handleStegoExtract(args json.RawMessage) (interface{}, error) {
	var a stegoExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.dimensionArgs)
	if err != nil {
		return nil, err
	}

	composite, err := p.LoadComposite(a.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stego image: %w", err)
	}
	recovered, err := p.ExtractAndSave(composite, a.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("could not save extracted secret image: %w", err)
	}
	return &stegoExtractResult{
		RecoveredPath: a.OutputPath,
		Dimensions:    recovered.Dimensions(),
		Digest:        imaging.Digest(recovered),
	}, nil
}

type stegoRunArgs struct {
	stego.Job
	dimensionArgs
}

func (s *Server) handleStegoRun(args json.RawMessage) (interface{}, error) {
	var a stegoRunArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.dimensionArgs)
	if err != nil {
		return nil, err
	}
	return p.Run(context.Background(), a.Job)
}

// === Raster Information Handlers ===

type pgmInfoArgs struct {
	Path string `json:"path"`
	dimensionArgs
}

func (s *Server) handlePGMInfo(args json.RawMessage) (interface{}, error) {
	var a pgmInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	dims, err := a.resolve(s.dims)
	if err != nil {
		return nil, err
	}
	return imaging.LoadRasterInfo(s.cache, a.Path, dims)
}

type pgmSampleArgs struct {
	Path   string `json:"path"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Points []struct {
		Row   int    `json:"row"`
		Col   int    `json:"col"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
	dimensionArgs
}

func (s *Server) handlePGMSample(args json.RawMessage) (interface{}, error) {
	var a pgmSampleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path, a.dimensionArgs)
	if err != nil {
		return nil, err
	}

	if len(a.Points) == 0 {
		return imaging.SampleNibbles(img, a.Row, a.Col)
	}
	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{Row: p.Row, Col: p.Col, Label: p.Label}
	}
	return imaging.SampleMulti(img, points)
}

type pgmCompareArgs struct {
	PathA      string  `json:"path_a"`
	PathB      string  `json:"path_b"`
	IncludeMap bool    `json:"include_map"`
	Scale      float64 `json:"scale"`
	OutputPath string  `json:"output_path"`
	dimensionArgs
}

type pgmCompareResult struct {
	Distortion *imaging.DistortionResult `json:"distortion"`
	Map        *imaging.PreviewResult    `json:"map,omitempty"`
}

func (s *Server) handlePGMCompare(args json.RawMessage) (interface{}, error) {
	var a pgmCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	imgA, err := s.load(a.PathA, a.dimensionArgs)
	if err != nil {
		return nil, err
	}
	imgB, err := s.load(a.PathB, a.dimensionArgs)
	if err != nil {
		return nil, err
	}

	distortion, err := imaging.CompareRasters(imgA, imgB)
	if err != nil {
		return nil, err
	}
	result := &pgmCompareResult{Distortion: distortion}
	if !a.IncludeMap && a.OutputPath == "" {
		return result, nil
	}

	heat, err := imaging.DistortionMap(imgA, imgB)
	if err != nil {
		return nil, err
	}
	if result.Map, err = imaging.Preview(heat, nil, a.Scale, a.OutputPath); err != nil {
		return nil, err
	}
	return result, nil
}

// === Rendering Handlers ===

type pgmPreviewArgs struct {
	Path   string `json:"path"`
	Region *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region,omitempty"`
	Scale      float64 `json:"scale"`
	OutputPath string  `json:"output_path"`
	dimensionArgs
}

func (s *Server) handlePGMPreview(args json.RawMessage) (interface{}, error) {
	var a pgmPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.load(a.Path, a.dimensionArgs)
	if err != nil {
		return nil, err
	}

	var region *imaging.Region
	if a.Region != nil {
		region = &imaging.Region{X1: a.Region.X1, Y1: a.Region.Y1, X2: a.Region.X2, Y2: a.Region.Y2}
	}
	return imaging.Preview(img.Gray(), region, a.Scale, a.OutputPath)
}

type pgmBitPlaneArgs struct {
	Path       string  `json:"path"`
	Plane      string  `json:"plane"`
	Scale      float64 `json:"scale"`
	OutputPath string  `json:"output_path"`
	dimensionArgs
}

func (s *Server) handlePGMBitPlane(args json.RawMessage) (interface{}, error) {
	var a pgmBitPlaneArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Plane == "" {
		a.Plane = string(imaging.PlaneLow)
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.load(a.Path, a.dimensionArgs)
	if err != nil {
		return nil, err
	}

	plane, err := imaging.BitPlane(img, imaging.Plane(a.Plane))
	if err != nil {
		return nil, err
	}
	return imaging.Preview(plane, nil, a.Scale, a.OutputPath)
}

// === Token Scanning Handlers ===

type tokensScanArgs struct {
	Path       string  `json:"path"`
	Text       *string `json:"text"`
	OutputPath string  `json:"output_path"`
}

type tokensScanResult struct {
	*tokens.Summary
	Lines      []string `json:"lines,omitempty"`
	OutputPath string   `json:"output_path,omitempty"`
}

func (s *Server) handleTokensScan(args json.RawMessage) (interface{}, error) {
	var a tokensScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var in io.Reader
	switch {
	case a.Text != nil:
		in = strings.NewReader(*a.Text)
	case a.Path != "":
		f, err := os.Open(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	default:
		return nil, fmt.Errorf("either path or text is required")
	}

	if a.OutputPath == "" {
		var buf bytes.Buffer
		summary, err := tokens.Process(in, &buf)
		if err != nil {
			return nil, err
		}
		return &tokensScanResult{Summary: summary, Lines: strings.Fields(buf.String())}, nil
	}

	out, err := os.Create(a.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	summary, err := tokens.Process(in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	if err != nil {
		return nil, err
	}
	return &tokensScanResult{Summary: summary, OutputPath: a.OutputPath}, nil
}
