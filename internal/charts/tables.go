package charts

import (
	"bytes"
	"fmt"
	"image/png"
	"sort"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"ratebot/internal/store"
)

const (
	tableWidth   = 1200
	lineHeight   = 18
	rowPadding   = 8
	maxCellWidth = 60 // characters per wrapped line
	colQuestion  = 20.0
	colAnswer    = 520.0
	colRating    = 1120.0
)

// TopBottomTables renders, per provider, the top-n and bottom-n rated
// question/answer pairs as table images. Providers without records are
// skipped; the remaining providers still get their tables.
func TopBottomTables(records []store.Rating, names map[string]string, n int) ([]Artifact, error) {
	if n <= 0 {
		n = 5
	}
	var artifacts []Artifact
	for _, model := range modelKeys(records) {
		var subset []store.Rating
		for _, r := range records {
			if r.Model == model {
				subset = append(subset, r)
			}
		}
		if len(subset) == 0 {
			continue
		}
		name := displayName(model, names)

		top := make([]store.Rating, len(subset))
		copy(top, subset)
		sort.SliceStable(top, func(i, j int) bool { return top[i].Rating > top[j].Rating })
		if len(top) > n {
			top = top[:n]
		}
		img, err := renderTable(fmt.Sprintf("Top-%d %s answers", n, name), top)
		if err != nil {
			return nil, fmt.Errorf("render top table for %s: %w", model, err)
		}
		artifacts = append(artifacts, Artifact{
			Name: fmt.Sprintf("top_answers_%s.png", model),
			Kind: KindDocument,
			PNG:  img,
		})

		bottom := make([]store.Rating, len(subset))
		copy(bottom, subset)
		sort.SliceStable(bottom, func(i, j int) bool { return bottom[i].Rating < bottom[j].Rating })
		if len(bottom) > n {
			bottom = bottom[:n]
		}
		img, err = renderTable(fmt.Sprintf("Bottom-%d %s answers", n, name), bottom)
		if err != nil {
			return nil, fmt.Errorf("render bottom table for %s: %w", model, err)
		}
		artifacts = append(artifacts, Artifact{
			Name: fmt.Sprintf("bottom_answers_%s.png", model),
			Kind: KindDocument,
			PNG:  img,
		})
	}
	return artifacts, nil
}

type tableRow struct {
	question []string
	answer   []string
	rating   string
	lines    int
}

func renderTable(title string, records []store.Rating) ([]byte, error) {
	rows := make([]tableRow, len(records))
	height := 3 * lineHeight // title + header
	for i, r := range records {
		row := tableRow{
			question: wrapText(r.Question, maxCellWidth),
			answer:   wrapText(r.Answer, maxCellWidth),
			rating:   strconv.Itoa(r.Rating),
		}
		row.lines = len(row.question)
		if len(row.answer) > row.lines {
			row.lines = len(row.answer)
		}
		rows[i] = row
		height += row.lines*lineHeight + rowPadding
	}
	height += rowPadding

	dc := gg.NewContext(tableWidth, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	y := float64(lineHeight)
	dc.DrawString(title, colQuestion, y)
	y += 1.5 * lineHeight
	dc.DrawString("question", colQuestion, y)
	dc.DrawString("answer", colAnswer, y)
	dc.DrawString("rating", colRating-60, y)
	y += rowPadding
	dc.DrawLine(colQuestion, y, tableWidth-colQuestion, y)
	dc.Stroke()
	y += lineHeight

	for _, row := range rows {
		for j := 0; j < row.lines; j++ {
			line := y + float64(j*lineHeight)
			if j < len(row.question) {
				dc.DrawString(row.question[j], colQuestion, line)
			}
			if j < len(row.answer) {
				dc.DrawString(row.answer[j], colAnswer, line)
			}
		}
		dc.DrawString(row.rating, colRating-60, y)
		y += float64(row.lines*lineHeight + rowPadding)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapText breaks s into lines of at most width characters, splitting on
// spaces where possible.
func wrapText(s string, width int) []string {
	if s == "" {
		return []string{""}
	}
	words := strings.Fields(s)
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		for len(w) > width {
			if cur.Len() > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			lines = append(lines, w[:width])
			w = w[width:]
		}
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
