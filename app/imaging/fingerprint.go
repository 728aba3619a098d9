package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// DefaultHashSize is the per-edge hash resolution. 16 yields 256-bit digests.
const DefaultHashSize = 16

// maxPixels caps the decoded image area. Checked against the header before the
// full decode so a decompression bomb never allocates.
const maxPixels = 200_000_000

var (
	// ErrDecode means the bytes are not an openable image.
	ErrDecode = errors.New("not a decodable image")

	// ErrPixelBudget means the image dimensions exceed the safety limit.
	ErrPixelBudget = errors.New("image exceeds pixel budget")
)

// Fingerprint holds three independent perceptual digests of one image:
// a DCT-based hash, a gradient hash and an average-intensity hash, each
// hex-encoded. Two fingerprints are comparable only when computed at the
// same hash size.
type Fingerprint struct {
	PHash string `json:"phash"`
	DHash string `json:"dhash"`
	AHash string `json:"ahash"`
}

// ComputeFingerprint decodes data and computes all three perceptual digests
// at hashSize bits per edge (hashSize <= 0 selects DefaultHashSize).
// Transparency is flattened first so alpha never influences the result.
func ComputeFingerprint(data []byte, hashSize int) (Fingerprint, error) {
	if hashSize <= 0 {
		hashSize = DefaultHashSize
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(header.Width)*int64(header.Height) > maxPixels {
		return Fingerprint{}, fmt.Errorf("%w: %dx%d", ErrPixelBudget, header.Width, header.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img = flattenAlpha(img)

	phash, err := goimagehash.ExtPerceptionHash(img, hashSize, hashSize)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: phash: %v", ErrDecode, err)
	}
	dhash, err := goimagehash.ExtDifferenceHash(img, hashSize, hashSize)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: dhash: %v", ErrDecode, err)
	}
	ahash, err := goimagehash.ExtAverageHash(img, hashSize, hashSize)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: ahash: %v", ErrDecode, err)
	}

	return Fingerprint{
		PHash: hexDigest(phash),
		DHash: hexDigest(dhash),
		AHash: hexDigest(ahash),
	}, nil
}

// flattenAlpha drops the alpha channel, keeping the color channels as-is.
// Opaque images pass through untouched.
func flattenAlpha(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	flat := image.NewNRGBA(b)
	draw.Draw(flat, b, img, b.Min, draw.Src)
	for i := 3; i < len(flat.Pix); i += 4 {
		flat.Pix[i] = 0xff
	}
	return flat
}

// hexDigest renders the hash words as one big-endian hex string.
func hexDigest(h *goimagehash.ExtImageHash) string {
	var sb strings.Builder
	for _, word := range h.GetHash() {
		fmt.Fprintf(&sb, "%016x", word)
	}
	return sb.String()
}
