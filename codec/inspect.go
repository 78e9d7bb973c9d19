package codec

import (
	"fmt"
	"strings"
)

const inspectWidth = 16

// hexdump renders data as rows of offset, hex bytes and printable ASCII:
//
//	00000000  e6 07 00 00                                       |....            |
func hexdump(data []byte) string {
	var sb strings.Builder
	for off := 0; off < len(data); off += inspectWidth {
		row := data[off:min(off+inspectWidth, len(data))]
		hex := make([]string, len(row))
		ascii := make([]byte, len(row))
		for i, b := range row {
			hex[i] = fmt.Sprintf("%02x", b)
			if b >= 0x20 && b <= 0x7e {
				ascii[i] = b
			} else {
				ascii[i] = '.'
			}
		}
		fmt.Fprintf(&sb, "%08x  %-48s  |%-16s|\n", off, strings.Join(hex, " "), ascii)
	}
	return sb.String()
}
