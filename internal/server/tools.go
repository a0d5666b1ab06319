package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// dimensionProps are the optional width/height overrides shared by every
// tool that decodes rasters.
func dimensionProps(props map[string]interface{}) map[string]interface{} {
	props["width"] = map[string]interface{}{
		"type":        "integer",
		"description": "Expected raster width. Omit (with height) to use the server default.",
	}
	props["height"] = map[string]interface{}{
		"type":        "integer",
		"description": "Expected raster height. Omit (with width) to use the server default.",
	}
	return props
}

func outputProps(props map[string]interface{}) map[string]interface{} {
	props["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor (e.g., 4.0 to enlarge each sample). Default 1.0",
		"default":     1.0,
	}
	props["output_path"] = pathProp("Optional path to save the image (png, jpg, gif, tif, bmp). When omitted the image is returned as base64 PNG.")
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Steganography
		{
			Name:        "stego_embed",
			Description: "Hide the high nibble of every secret sample in the low nibble of the matching cover sample and save the composite as binary PGM (P5).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(map[string]interface{}{
					"cover_path":  pathProp("Absolute path to the cover PGM"),
					"secret_path": pathProp("Absolute path to the secret PGM"),
					"output_path": pathProp("Where to write the composite"),
				}),
				"required": []string{"cover_path", "secret_path", "output_path"},
			},
		},
		{
			Name:        "stego_extract",
			Description: "Recover a 16-level approximation of the hidden secret from a composite and save it as text PGM (P2).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(map[string]interface{}{
					"input_path":  pathProp("Absolute path to the composite PGM"),
					"output_path": pathProp("Where to write the recovered secret"),
				}),
				"required": []string{"input_path", "output_path"},
			},
		},
		{
			Name:        "stego_run",
			Description: "Run the full flow: load cover and secret, embed, save the composite, extract and save the recovered secret. Reports digests and distortion.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(map[string]interface{}{
					"cover_path":     pathProp("Absolute path to the cover PGM"),
					"secret_path":    pathProp("Absolute path to the secret PGM"),
					"composite_path": pathProp("Where to write the composite (P5)"),
					"recovered_path": pathProp("Where to write the recovered secret (P2)"),
				}),
				"required": []string{"cover_path", "secret_path", "composite_path", "recovered_path"},
			},
		},

		// Raster Information
		{
			Name:        "pgm_info",
			Description: "Get format, dimensions, file size, BLAKE3 digest, and min/max/mean sample of a PGM file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(map[string]interface{}{
					"path": pathProp("Absolute path to the PGM file"),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pgm_sample",
			Description: "Get the exact sample value and its high/low nibbles at one coordinate, or at several coordinates in a single call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(map[string]interface{}{
					"path": pathProp("Absolute path to the PGM file"),
					"row": map[string]interface{}{
						"type":        "integer",
						"description": "Row (0-based, from top)",
					},
					"col": map[string]interface{}{
						"type":        "integer",
						"description": "Column (0-based, from left)",
					},
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"row":   map[string]interface{}{"type": "integer"},
								"col":   map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string", "description": "Optional label for this point"},
							},
							"required": []string{"row", "col"},
						},
						"description": "Points to sample. When present, row and col are ignored.",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pgm_compare",
			Description: "Measure distortion (MSE, PSNR, max and mean absolute error) between two equally sized PGM files, optionally rendering a heat map of the differences.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(outputProps(map[string]interface{}{
					"path_a": pathProp("Absolute path to the reference PGM"),
					"path_b": pathProp("Absolute path to the PGM to compare"),
					"include_map": map[string]interface{}{
						"type":        "boolean",
						"description": "Render a blue-to-red distortion heat map",
						"default":     false,
					},
				})),
				"required": []string{"path_a", "path_b"},
			},
		},

		// Rendering
		{
			Name:        "pgm_preview",
			Description: "Render a PGM (or a region of it) as a viewable image. Scaling uses nearest-neighbor so individual samples stay distinct.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(outputProps(map[string]interface{}{
					"path": pathProp("Absolute path to the PGM file"),
					"region": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
							"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
							"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
							"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
						},
						"description": "Optional region to crop before scaling",
					},
				})),
				"required": []string{"path"},
			},
		},
		{
			Name:        "pgm_bit_plane",
			Description: "Render the high or low nibble of every sample stretched to full range. The low plane of a composite shows the hidden secret.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": dimensionProps(outputProps(map[string]interface{}{
					"path": pathProp("Absolute path to the PGM file"),
					"plane": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"high", "low"},
						"description": "Nibble to render. Default low",
						"default":     "low",
					},
				})),
				"required": []string{"path"},
			},
		},

		// Token Scanning
		{
			Name:        "tokens_scan",
			Description: "Classify whitespace-separated tokens as float literals. Valid values are formatted with six decimals; invalid tokens are counted and skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp("Absolute path to the text file to scan. Either path or text is required."),
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Inline text to scan",
					},
					"output_path": pathProp("Optional path to write the valid values, one per line"),
				},
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
