// Package encode serializes exported frames into interchange formats. It
// wraps the standard image encoders and splices in the metadata they omit:
// pixel density for JPEG and PNG, and the sRGB intent chunk for PNG.
package encode

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/tiff"
)

// MIME types of the supported formats.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMETIFF = "image/tiff"
)

// DefaultJPEGQuality is used when the caller passes a quality outside
// [1, 100].
const DefaultJPEGQuality = 90

// JPEG encodes img as a baseline JPEG at the given quality. A positive dpi
// is recorded as the JFIF pixel density; the standard encoder emits no
// JFIF segment at all, so one is inserted after SOI.
func JPEG(img image.Image, quality, dpi int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode: jpeg: %w", err)
	}
	data := buf.Bytes()
	if dpi <= 0 {
		return data, nil
	}
	return spliceJFIF(data, dpi)
}

// spliceJFIF inserts a JFIF APP0 segment carrying the pixel density right
// after the SOI marker.
func spliceJFIF(data []byte, dpi int) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("encode: jpeg stream missing SOI marker")
	}
	seg := []byte{
		0xFF, 0xE0, // APP0
		0x00, 0x10, // segment length 16
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x02, // version 1.02
		0x01, // density unit: dots per inch
		byte(dpi >> 8), byte(dpi),
		byte(dpi >> 8), byte(dpi),
		0x00, 0x00, // no thumbnail
	}
	out := make([]byte, 0, len(data)+len(seg))
	out = append(out, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...), nil
}

// PNG encodes img as a PNG. An sRGB chunk (perceptual intent) is always
// inserted; a positive dpi additionally records a pHYs chunk. Both are
// spliced directly after IHDR, where ancillary chunks that precede the
// image data belong.
func PNG(img image.Image, dpi int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode: png: %w", err)
	}
	chunks := [][]byte{pngChunk("sRGB", []byte{0})}
	if dpi > 0 {
		// pHYs takes pixels per meter.
		ppm := uint32(float64(dpi)/0.0254 + 0.5)
		body := make([]byte, 9)
		putU32(body[0:], ppm)
		putU32(body[4:], ppm)
		body[8] = 1
		chunks = append(chunks, pngChunk("pHYs", body))
	}
	return splicePNG(buf.Bytes(), chunks)
}

// TIFF encodes img as a Deflate-compressed TIFF. The x/image encoder can
// write uncompressed or Deflate strips only; it cannot produce LZW, and it
// applies the horizontal predictor solely to LZW, so neither is requested
// here.
func TIFF(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := tiff.Encode(&buf, img, &tiff.Options{
		Compression: tiff.Deflate,
	})
	if err != nil {
		return nil, fmt.Errorf("encode: tiff: %w", err)
	}
	return buf.Bytes(), nil
}

// pngSignatureLen is the length of the fixed 8-byte PNG file signature.
const pngSignatureLen = 8

// splicePNG inserts chunks immediately after the IHDR chunk.
func splicePNG(data []byte, chunks [][]byte) ([]byte, error) {
	// Signature, then IHDR: 4 length + 4 type + 13 data + 4 CRC.
	end := pngSignatureLen + 25
	if len(data) < end || string(data[pngSignatureLen+4:pngSignatureLen+8]) != "IHDR" {
		return nil, fmt.Errorf("encode: png stream missing IHDR")
	}
	extra := 0
	for _, c := range chunks {
		extra += len(c)
	}
	out := make([]byte, 0, len(data)+extra)
	out = append(out, data[:end]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, data[end:]...), nil
}

// pngChunk assembles one chunk: length, type, data, CRC over type+data.
func pngChunk(typ string, body []byte) []byte {
	c := make([]byte, 0, 12+len(body))
	var lenBuf [4]byte
	putU32(lenBuf[:], uint32(len(body)))
	c = append(c, lenBuf[:]...)
	c = append(c, typ...)
	c = append(c, body...)
	var crcBuf [4]byte
	putU32(crcBuf[:], crc32.ChecksumIEEE(c[4:]))
	return append(c, crcBuf[:]...)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
