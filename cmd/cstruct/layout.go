package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/wippyai/cstruct/ctype"
)

type layoutRow struct {
	name    string
	ctype   string
	offset  int
	size    int
	padding int
}

// layoutRows flattens def into one row per member. Nested composites are
// expanded with dotted names, anonymous ones without a prefix.
func layoutRows(def *ctype.Composite, prefix string, base int) []layoutRow {
	var rows []layoutRow
	for _, f := range def.Fields() {
		name := prefix + f.Name
		if f.Anonymous {
			name = prefix
		}
		ct := f.CType
		if f.Flexible {
			ct += "[]"
		} else if f.VLen != 1 {
			ct += "[" + strconv.Itoa(f.VLen) + "]"
		}
		if !f.Anonymous {
			rows = append(rows, layoutRow{
				name:    name,
				ctype:   ct,
				offset:  base + f.Offset,
				size:    f.Size(),
				padding: f.Padding,
			})
		}
		if f.IsComposite() && f.VLen == 1 && !f.Flexible {
			sub := name + "."
			if f.Anonymous {
				sub = prefix
			}
			rows = append(rows, layoutRows(f.Ref, sub, base+f.Offset)...)
		}
	}
	return rows
}

func renderLayout(def *ctype.Composite, st styles) string {
	rows := layoutRows(def, "", 0)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("OFFSET", "SIZE", "PAD", "MEMBER", "TYPE").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.header.Padding(0, 1)
			case col == 2 && row >= 0 && row < len(rows) && rows[row].padding > 0:
				return st.padding.Padding(0, 1)
			case col == 3:
				return st.name.Padding(0, 1)
			case col == 4:
				return st.typ.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, r := range rows {
		t.Row(
			strconv.Itoa(r.offset),
			strconv.Itoa(r.size),
			strconv.Itoa(r.padding),
			r.name,
			r.ctype,
		)
	}
	title := st.title.Render(def.String())
	summary := fmt.Sprintf("size %d, align %d, %s", def.Size(), def.Align(), def.Order())
	return title + " " + summary + "\n" + t.String() + "\n"
}
