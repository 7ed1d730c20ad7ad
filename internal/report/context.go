package report

import (
	"fmt"
	"strings"
)

// contextSize is how many bytes are shown on each side of a mismatch.
const contextSize = 6

// cellWidth is the column width of one byte in a context block.
const cellWidth = 5

// byteName is the printable form of b in a context block.
func byteName(b byte) string {
	switch b {
	case ' ':
		return "SPC"
	case '\t':
		return "TAB"
	case '\r':
		return "CR"
	case '\n':
		return "LF"
	case '\v':
		return "VT"
	case '\f':
		return "FF"
	}
	if b >= 0x20 && b < 0x7f {
		return string(b)
	}
	return "NP"
}

// renderContext shows the bytes of text around pos, one column per byte:
// a line of names, an optional line with '^' under pos and a line of hex
// values.
func renderContext(text []byte, pos int, pointer bool) string {
	lower := max(pos-contextSize, 0)
	upper := min(len(text), pos+contextSize+1)

	var names, marks, hex strings.Builder
	for i := lower; i < upper; i++ {
		fmt.Fprintf(&names, "%-*s", cellWidth, byteName(text[i]))
		if pointer {
			mark := " "
			if i == pos {
				mark = "^"
			}
			fmt.Fprintf(&marks, "%-*s", cellWidth, mark)
		}
		fmt.Fprintf(&hex, "0x%02x ", text[i])
	}

	if pointer {
		return names.String() + "\n" + marks.String() + "\n" + hex.String()
	}
	return names.String() + "\n" + hex.String()
}
