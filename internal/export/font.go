package export

import (
	_ "embed"
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// NanumBarunGothic, OFL licensed (see fonts/NanumBarunGothic-LICENSE.txt).
// The subset covers Hangul; Latin falls back to the bitmap face below.
//
//go:embed fonts/NanumBarunGothic.ttf
var nanumTTF []byte

var (
	nanumOnce sync.Once
	nanumFont *sfnt.Font
	nanumErr  error
)

// snapshotFace builds the face used by the raster exporter. Faces carry
// internal buffers and are not safe for concurrent use, so each render
// gets its own.
func snapshotFace() (font.Face, error) {
	nanumOnce.Do(func() {
		nanumFont, nanumErr = opentype.Parse(nanumTTF)
	})
	if nanumErr != nil {
		return nil, nanumErr
	}

	korean, err := opentype.NewFace(nanumFont, &opentype.FaceOptions{
		Size:    14,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	return &fallbackFace{korean: korean, latin: basicfont.Face7x13, fnt: nanumFont}, nil
}

// fallbackFace routes each rune to the embedded Korean face when it has a
// glyph for it and to the ASCII bitmap face otherwise. The Korean subset
// strips Latin, so both are needed for mixed transcript lines.
type fallbackFace struct {
	korean font.Face
	latin  font.Face
	fnt    *sfnt.Font
	buf    sfnt.Buffer
}

func (f *fallbackFace) pick(r rune) font.Face {
	if gi, err := f.fnt.GlyphIndex(&f.buf, r); err == nil && gi != 0 {
		return f.korean
	}
	return f.latin
}

func (f *fallbackFace) Close() error {
	return f.korean.Close()
}

func (f *fallbackFace) Glyph(dot fixed.Point26_6, r rune) (dr image.Rectangle, mask image.Image, maskp image.Point, advance fixed.Int26_6, ok bool) {
	return f.pick(r).Glyph(dot, r)
}

func (f *fallbackFace) GlyphBounds(r rune) (bounds fixed.Rectangle26_6, advance fixed.Int26_6, ok bool) {
	return f.pick(r).GlyphBounds(r)
}

func (f *fallbackFace) GlyphAdvance(r rune) (advance fixed.Int26_6, ok bool) {
	return f.pick(r).GlyphAdvance(r)
}

func (f *fallbackFace) Kern(r0, r1 rune) fixed.Int26_6 {
	a, b := f.pick(r0), f.pick(r1)
	if a != b {
		return 0
	}
	return a.Kern(r0, r1)
}

func (f *fallbackFace) Metrics() font.Metrics {
	return f.korean.Metrics()
}
