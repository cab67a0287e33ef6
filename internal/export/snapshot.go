package export

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"github.com/jung-kurt/gofpdf"

	"github.com/eduwang/tmssr-250809/internal/aggregate"
	"github.com/eduwang/tmssr-250809/internal/model"
)

const (
	snapshotWidth  = 1200
	snapshotMargin = 40.0
	lineHeight     = 18.0
	blockGap       = 24.0
)

// Snapshot is a rendered raster of a result set plus its pixel dimensions
type Snapshot struct {
	PNG    []byte
	Width  int
	Height int
}

// RenderSnapshot draws the filtered entries onto a white raster: a header
// line per document, the transcript, and the feedback text when present.
// This is a visual snapshot for download, not a layout engine.
func RenderSnapshot(entries []aggregate.Entry) (*Snapshot, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("render snapshot: empty result set")
	}

	face, err := snapshotFace()
	if err != nil {
		return nil, fmt.Errorf("render snapshot: %w", err)
	}
	defer face.Close()

	// measuring pass to size the canvas before drawing
	measure := gg.NewContext(snapshotWidth, 1)
	measure.SetFontFace(face)
	lines := layoutLines(measure, entries)

	height := int(snapshotMargin*2 + float64(len(lines))*lineHeight)
	dc := gg.NewContext(snapshotWidth, height)
	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0.1, 0.1, 0.1)

	y := snapshotMargin + lineHeight
	for _, line := range lines {
		dc.DrawString(line, snapshotMargin, y)
		y += lineHeight
	}

	buf := &bytes.Buffer{}
	if err := dc.EncodePNG(buf); err != nil {
		return nil, fmt.Errorf("render snapshot: %w", err)
	}
	return &Snapshot{PNG: buf.Bytes(), Width: snapshotWidth, Height: height}, nil
}

// RenderSnapshotPDF embeds the raster into a single landscape page sized
// exactly to the raster's pixel dimensions. No pagination: one full-bleed
// embed, matching the raster one to one.
func RenderSnapshotPDF(entries []aggregate.Entry) ([]byte, error) {
	snap, err := RenderSnapshot(entries)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(snap.Width), Ht: float64(snap.Height)},
	})
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("snapshot", opts, bytes.NewReader(snap.PNG))
	pdf.AddPage()
	pdf.ImageOptions("snapshot", 0, 0, float64(snap.Width), float64(snap.Height), false, opts, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render snapshot pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// layoutLines word-wraps every document into drawable lines
func layoutLines(dc *gg.Context, entries []aggregate.Entry) []string {
	wrapWidth := float64(snapshotWidth) - snapshotMargin*2
	var lines []string

	for i, e := range entries {
		if i > 0 {
			for j := 0.0; j < blockGap/lineHeight; j++ {
				lines = append(lines, "")
			}
		}

		user := e.Doc.DisplayName
		if user == "" {
			user = e.Doc.UID
		}
		header := fmt.Sprintf("%s  %s  [%s]", user, aggregate.FormatTimestamp(e.At), e.Kind)
		lines = append(lines, dc.WordWrap(header, wrapWidth)...)

		if len(e.Doc.Conversation) == 0 {
			lines = append(lines, "  (no conversation)")
		}
		for _, c := range e.Doc.Conversation {
			prefix := "  "
			if c.IsUser {
				prefix = "* "
			}
			lines = append(lines, dc.WordWrap(prefix+c.Speaker+": "+c.Message, wrapWidth)...)
		}

		if e.Kind == model.KindFeedback && e.Doc.Feedback != "" {
			lines = append(lines, "")
			lines = append(lines, "  -- feedback --")
			lines = append(lines, dc.WordWrap(e.Doc.Feedback, wrapWidth)...)
		}
	}
	return lines
}
