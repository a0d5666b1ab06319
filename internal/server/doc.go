// Package server implements the MCP (Model Context Protocol) server for the
// PGM steganography tools.
//
// This package provides a JSON-RPC 2.0 server that exposes embedding,
// extraction, and raster inspection through the MCP protocol, so an MCP
// client can hide one grayscale image inside another and examine the result.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
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
// Steganography:
//   - stego_embed: Hide a secret raster in a cover, save the composite as P5
//   - stego_extract: Recover the 16-level secret from a composite, save as P2
//   - stego_run: Embed and extract in one call, with digests and distortion
//
// Raster Information:
//   - pgm_info: Format, dimensions, size, digest, sample statistics
//   - pgm_sample: Sample values split into high and low nibbles
//   - pgm_compare: MSE/PSNR between two rasters, optional heat map
//
// Rendering:
//   - pgm_preview: Crop and scale a raster to PNG
//   - pgm_bit_plane: Render one nibble plane at full contrast
//
// Token Scanning:
//   - tokens_scan: Classify whitespace-separated tokens as float literals
//
// # Dimensions
//
// Tools that decode rasters accept optional width and height. When both are
// omitted the server's configured default applies; a zero default trusts
// each file's header. A file whose header disagrees is rejected.
//
// # Raster Caching
//
// Decoded rasters are cached by path and expected dimensions for the lifetime
// of the server. Paths written by stego tools are evicted so later calls see
// the new contents.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(pgm.Dimensions{Width: 512, Height: 512}, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
