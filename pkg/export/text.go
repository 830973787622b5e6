package export

import (
	"strings"
)

func renderMarkdown(doc document) []byte {
	var b strings.Builder
	b.WriteString("# " + doc.title + "\n")
	previous := blockHeading
	for _, blk := range doc.blocks {
		switch blk.kind {
		case blockHeading:
			level := blk.level
			if level < 1 {
				level = 1
			}
			b.WriteString("\n" + strings.Repeat("#", level) + " " + blk.text + "\n")
		case blockBullet:
			if previous != blockBullet {
				b.WriteString("\n")
			}
			b.WriteString("- " + blk.text + "\n")
		default:
			b.WriteString("\n" + blk.text + "\n")
		}
		previous = blk.kind
	}
	return []byte(b.String())
}

func renderText(doc document) []byte {
	var b strings.Builder
	b.WriteString(strings.ToUpper(doc.title) + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(doc.title))) + "\n")
	for _, blk := range doc.blocks {
		switch blk.kind {
		case blockHeading:
			b.WriteString("\n" + blk.text + "\n")
			underline := "-"
			if blk.level <= 1 {
				underline = "="
			}
			b.WriteString(strings.Repeat(underline, len([]rune(blk.text))) + "\n")
		case blockBullet:
			b.WriteString("  * " + blk.text + "\n")
		default:
			b.WriteString(blk.text + "\n")
		}
	}
	return []byte(b.String())
}
