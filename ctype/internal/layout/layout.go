package layout

// Info is the computed size and alignment of a member or aggregate.
type Info struct {
	Size  int
	Align int
}

// Member describes one member as seen by the layout fold.
type Member struct {
	Info
	// Unpadded members never receive leading padding (byte strings).
	Unpadded bool
}

// Padding returns the bytes needed to bring pos up to a multiple of align.
func Padding(pos, align int) int {
	if align <= 0 {
		return 0
	}
	return (align - pos%align) % align
}

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align int) int {
	return offset + Padding(offset, align)
}

// Place returns the padding and final offset of a struct member whose
// unaligned start is base.
func Place(base int, m Member, aligned bool) (padding, offset int) {
	if aligned && !m.Unpadded {
		padding = Padding(base, m.Align)
	}
	return padding, base + padding
}

// Union returns the aggregate info of overlapping members. Unions are
// never tail padded.
func Union(members []Member) Info {
	var info Info
	for _, m := range members {
		if m.Size > info.Size {
			info.Size = m.Size
		}
		if m.Align > info.Align {
			info.Align = m.Align
		}
	}
	return info
}

// Tail rounds the running end of a struct up to its alignment when aligned.
func Tail(end, align int, aligned bool) int {
	if !aligned {
		return end
	}
	return AlignTo(end, align)
}
