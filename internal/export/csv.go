// Package export serializes filtered result sets: delimited text for
// spreadsheet import and raster/PDF snapshots for download.
package export

import (
	"bytes"
	"encoding/csv"

	"github.com/eduwang/tmssr-250809/internal/aggregate"
)

// utf8BOM keeps multi-byte text intact when the file is opened in Excel
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ConversationsCSV renders the filtered entries as comma-delimited text.
// The feedback column is emitted only when at least one document in the
// batch carries feedback, and the feedback text is attached to the first
// row of its document's block so a long blob is not repeated per line.
// Document blocks are separated by a blank row.
func ConversationsCSV(entries []aggregate.Entry) ([]byte, error) {
	hasFeedback := false
	for _, e := range entries {
		if e.Doc.Feedback != "" {
			hasFeedback = true
			break
		}
	}

	buf := &bytes.Buffer{}
	buf.Write(utf8BOM)
	w := csv.NewWriter(buf)

	header := []string{"user", "timestamp", "speaker", "message"}
	if hasFeedback {
		header = append(header, "feedback")
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	blank := make([]string, len(header))
	for i, e := range entries {
		if i > 0 {
			if err := w.Write(blank); err != nil {
				return nil, err
			}
		}
		if err := writeBlock(w, e, hasFeedback); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBlock(w *csv.Writer, e aggregate.Entry, hasFeedback bool) error {
	user := e.Doc.DisplayName
	if user == "" {
		user = e.Doc.UID
	}
	ts := aggregate.FormatTimestamp(e.At)

	if len(e.Doc.Conversation) == 0 {
		// a response with no transcript still gets a placeholder row
		rec := []string{user, ts, "", "(no conversation)"}
		if hasFeedback {
			rec = append(rec, e.Doc.Feedback)
		}
		return w.Write(rec)
	}

	for i, c := range e.Doc.Conversation {
		rec := []string{user, ts, c.Speaker, c.Message}
		if hasFeedback {
			if i == 0 {
				rec = append(rec, e.Doc.Feedback)
			} else {
				rec = append(rec, "")
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
