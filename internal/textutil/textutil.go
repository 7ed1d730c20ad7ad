// Package textutil holds byte-level text helpers shared by the driver.
package textutil

import "bytes"

var (
	crlf = []byte("\r\n")
	cr   = []byte("\r")
	lf   = []byte("\n")
)

// NormalizeLineEndings rewrites "\r\n" and lone "\r" as "\n". The input is
// returned unchanged when it contains no carriage return.
func NormalizeLineEndings(b []byte) []byte {
	if bytes.IndexByte(b, '\r') < 0 {
		return b
	}
	out := bytes.ReplaceAll(b, crlf, lf)
	return bytes.ReplaceAll(out, cr, lf)
}
