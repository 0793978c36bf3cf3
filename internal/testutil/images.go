// Package testutil writes image fixtures for package tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Gradient returns a width x height image whose pixels differ by position.
func Gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

// WritePNG stores a gradient PNG in dir and returns its path.
func WritePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, Gradient(width, height)); err != nil {
		t.Fatalf("Failed to encode %s: %v", name, err)
	}
	return write(t, dir, name, buf.Bytes())
}

// WriteJPEGWithOrientation stores a gradient JPEG of width x height stored
// pixels whose EXIF orientation tag is orientation.
func WriteJPEGWithOrientation(t *testing.T, dir, name string, width, height, orientation int) string {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Gradient(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode %s: %v", name, err)
	}
	data := buf.Bytes()

	// APP1 goes right after the SOI marker.
	out := append([]byte{}, data[:2]...)
	out = append(out, exifSegment(orientation)...)
	out = append(out, data[2:]...)
	return write(t, dir, name, out)
}

// exifSegment builds an APP1 segment holding a big-endian TIFF header and an
// IFD0 with a single Orientation (0x0112) SHORT entry.
func exifSegment(orientation int) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("MM")
	binary.Write(&tiff, binary.BigEndian, uint16(42))
	binary.Write(&tiff, binary.BigEndian, uint32(8))
	binary.Write(&tiff, binary.BigEndian, uint16(1))
	binary.Write(&tiff, binary.BigEndian, uint16(0x0112))
	binary.Write(&tiff, binary.BigEndian, uint16(3))
	binary.Write(&tiff, binary.BigEndian, uint32(1))
	binary.Write(&tiff, binary.BigEndian, uint16(orientation))
	binary.Write(&tiff, binary.BigEndian, uint16(0))
	binary.Write(&tiff, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	segment := []byte{0xFF, 0xE1}
	segment = binary.BigEndian.AppendUint16(segment, uint16(len(payload)+2))
	return append(segment, payload...)
}

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}
