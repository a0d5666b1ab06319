package imaging

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// RasterCache provides thread-safe caching of decoded rasters to avoid redundant disk reads.
//
// Entries are keyed by file path and the expected dimensions used to decode
// them, so the same file loaded with a different size constraint is decoded
// (and validated) again.
//
// Cached rasters are shared between callers. Treat them as read-only and
// Clone before mutating.
//
// # Example Usage
//
//	cache := imaging.NewRasterCache()
//	img, err := cache.Load("/path/to/cover.pgm", pgm.Dimensions{Width: 512, Height: 512})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/cover.pgm") // after rewriting the file
type RasterCache struct {
	mu      sync.RWMutex
	rasters map[cacheKey]*pgm.Raster
}

type cacheKey struct {
	path string
	dims pgm.Dimensions
}

// NewRasterCache creates and initializes a new empty raster cache.
func NewRasterCache() *RasterCache {
	return &RasterCache{
		rasters: make(map[cacheKey]*pgm.Raster),
	}
}

// Load retrieves a raster from the cache or decodes it from disk.
//
// Parameters:
//   - path: File path to a P2 or P5 raster, optionally xz-compressed.
//   - dims: Expected dimensions. The zero value trusts the file header.
//
// Decode failures are returned unchanged so callers can inspect the
// *pgm.FormatError or *pgm.IOError.
func (c *RasterCache) Load(path string, dims pgm.Dimensions) (*pgm.Raster, error) {
	key := cacheKey{path: path, dims: dims}

	c.mu.RLock()
	if img, ok := c.rasters[key]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := pgm.ReadFile(path, dims)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rasters[key] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all rasters from the cache.
func (c *RasterCache) Clear() {
	c.mu.Lock()
	c.rasters = make(map[cacheKey]*pgm.Raster)
	c.mu.Unlock()
}

// Evict removes every cached decoding of path, whatever dimensions it was
// loaded with. Unknown paths are ignored.
func (c *RasterCache) Evict(path string) {
	c.mu.Lock()
	for key := range c.rasters {
		if key.path == path {
			delete(c.rasters, key)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *RasterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rasters)
}

// RasterInfo contains metadata about a raster file.
type RasterInfo struct {
	// Path is the file that was inspected.
	Path string `json:"path"`

	// Format is "P2" (text) or "P5" (binary), detected from the magic token.
	Format string `json:"format"`

	// Compressed reports whether the file is stored xz-compressed.
	Compressed bool `json:"compressed"`

	Width    int `json:"width"`
	Height   int `json:"height"`
	MaxValue int `json:"max_value"`

	// FileSizeBytes is the on-disk size; FileSize is the same value for humans.
	FileSizeBytes int64  `json:"file_size_bytes"`
	FileSize      string `json:"file_size"`

	// Digest is the BLAKE3-256 digest of the sample buffer in hex.
	Digest string `json:"digest"`

	Min  uint8   `json:"min"`
	Max  uint8   `json:"max"`
	Mean float64 `json:"mean"`
}

// LoadRasterInfo loads a raster through cache and returns its metadata.
//
// The format is sniffed from the magic token rather than the file extension,
// since both encodings conventionally use ".pgm".
func LoadRasterInfo(cache *RasterCache, path string, dims pgm.Dimensions) (*RasterInfo, error) {
	img, err := cache.Load(path, dims)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	min, max, mean := sampleStats(img)
	return &RasterInfo{
		Path:          path,
		Format:        format,
		Compressed:    strings.HasSuffix(path, pgm.XZSuffix),
		Width:         img.Width(),
		Height:        img.Height(),
		MaxValue:      img.MaxValue(),
		FileSizeBytes: stat.Size(),
		FileSize:      humanize.Bytes(uint64(stat.Size())),
		Digest:        Digest(img),
		Min:           min,
		Max:           max,
		Mean:          math.Round(mean*100) / 100,
	}, nil
}

// GetDimensions returns the dimensions declared by a raster file.
func GetDimensions(cache *RasterCache, path string) (*pgm.Dimensions, error) {
	img, err := cache.Load(path, pgm.Dimensions{})
	if err != nil {
		return nil, err
	}
	d := img.Dimensions()
	return &d, nil
}

// Digest returns the hex BLAKE3-256 digest of the raster's dimensions and
// samples. Identical rasters always produce identical digests.
func Digest(img *pgm.Raster) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s\n", img.Dimensions())
	h.Write(img.Pixels())
	return hex.EncodeToString(h.Sum(nil))
}

func detectFormat(path string) (string, error) {
	rc, err := pgm.Open(path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	magic, err := bufio.NewReader(rc).Peek(2)
	if err != nil {
		return "", fmt.Errorf("failed to read magic: %w", err)
	}
	return string(magic), nil
}

func sampleStats(img *pgm.Raster) (min, max uint8, mean float64) {
	min = 255
	var sum int
	for i := 0; i < img.Len(); i++ {
		v := img.Index(i)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += int(v)
	}
	return min, max, float64(sum) / float64(img.Len())
}
