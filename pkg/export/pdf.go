package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

// Heading font sizes by level; deeper levels use the body size in bold.
var pdfHeadingSizes = map[int]float64{1: 14, 2: 13, 3: 12}

const (
	pdfBodySize   = 11
	pdfLineHeight = 6
)

func renderPDF(doc document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.title, true)
	pdf.SetCreator("lecture-notes", true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	// core fonts are cp1252, so text is translated before layout
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, blk := range doc.blocks {
		switch blk.kind {
		case blockHeading:
			size, ok := pdfHeadingSizes[blk.level]
			if !ok {
				size = pdfBodySize
			}
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, pdfLineHeight+2, tr(blk.text), "", "L", false)
		case blockBullet:
			pdf.SetFont("Helvetica", "", pdfBodySize)
			pdf.SetX(pdf.GetX() + 4)
			pdf.MultiCell(0, pdfLineHeight, tr("- "+blk.text), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", pdfBodySize)
			pdf.MultiCell(0, pdfLineHeight, tr(blk.text), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, model.NewError(model.KindGenerationFailed, "export.renderPDF", "pdf rendering failed", err)
	}
	return buf.Bytes(), nil
}
