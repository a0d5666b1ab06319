// Package stego hides one grayscale raster inside another and recovers it.
//
// Each composite sample keeps the cover's high nibble and carries the
// secret's high nibble in its low nibble:
//
//	composite = (cover & 0xF0) | (secret >> 4)
//	recovered = (composite & 0x0F) << 4
//
// The recovered raster is therefore the secret quantized to 16 gray levels,
// and no sample of either image moves by more than 15.
//
// Pipeline wires the transforms to files: it loads cover and secret, writes
// the composite in the binary encoding, and writes the recovered secret in
// the textual encoding.
package stego
