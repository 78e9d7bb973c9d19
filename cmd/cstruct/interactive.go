package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wippyai/cstruct/codec"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/memory"
)

// editorModel browses and edits fixed-size records in place. Every edit
// goes through a live instance over the loaded bytes.
type editorModel struct {
	err      error
	def      *ctype.Composite
	inst     *codec.Instance
	mem      *memory.View
	save     func([]byte) error
	data     []byte
	title    string
	status   string
	fields   []string
	input    textinput.Model
	start    int
	records  int
	record   int
	selected int
	editing  bool
	hex      bool
	dirty    bool
	st       styles
}

// newEditor edits data starting at byte start. save is called with the
// full buffer on "w"; nil disables saving.
func newEditor(def *ctype.Composite, data []byte, start int, title string, save func([]byte) error, st styles) (*editorModel, error) {
	size := def.Size()
	if size == 0 {
		return nil, fmt.Errorf("%s has no members", def)
	}
	if start < 0 || start > len(data) {
		return nil, fmt.Errorf("offset %d outside %d bytes of data", start, len(data))
	}
	records := (len(data) - start) / size
	if records == 0 {
		return nil, fmt.Errorf("no complete %s record at offset %d", def, start)
	}
	ti := textinput.New()
	ti.Width = 40
	m := &editorModel{
		def:     def,
		mem:     memory.Wrap(data),
		save:    save,
		data:    data,
		title:   title,
		fields:  leafPaths(def, ""),
		input:   ti,
		start:   start,
		records: records,
		st:      st,
	}
	if err := m.bind(0); err != nil {
		return nil, err
	}
	return m, nil
}

// leafPaths lists the editable scalar paths of def in layout order.
func leafPaths(def *ctype.Composite, prefix string) []string {
	var out []string
	for _, f := range def.Fields() {
		switch {
		case f.Flexible:
		case f.Anonymous:
			out = append(out, leafPaths(f.Ref, prefix)...)
		case f.IsComposite() && f.VLen == 1:
			out = append(out, leafPaths(f.Ref, prefix+f.Name+".")...)
		case f.IsComposite():
			for k := 0; k < f.VLen; k++ {
				out = append(out, leafPaths(f.Ref, prefix+f.Name+"["+strconv.Itoa(k)+"].")...)
			}
		case f.IsArray():
			for k := 0; k < f.VLen; k++ {
				out = append(out, prefix+f.Name+"["+strconv.Itoa(k)+"]")
			}
		default:
			out = append(out, prefix+f.Name)
		}
	}
	return out
}

func (m *editorModel) bind(record int) error {
	base := m.start + record*m.def.Size()
	inst, err := codec.NewInstanceOver(m.def, m.mem, uint32(base))
	if err != nil {
		return err
	}
	m.inst = inst
	m.record = record
	return nil
}

func (m *editorModel) Init() tea.Cmd { return nil }

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.editing {
		return m.updateEditing(key)
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.fields)-1 {
			m.selected++
		}

	case "right", "n":
		m.move(m.record + 1)

	case "left", "p":
		m.move(m.record - 1)

	case "x":
		m.hex = !m.hex

	case "enter":
		if len(m.fields) == 0 {
			break
		}
		cur, err := m.inst.GetPath(m.fields[m.selected])
		if err != nil {
			m.err = err
			break
		}
		m.input.Prompt = m.fields[m.selected] + ": "
		m.input.SetValue(rawValue(cur))
		m.input.CursorEnd()
		m.input.Focus()
		m.editing = true
		m.err = nil

	case "w":
		m.write()
	}
	return m, nil
}

func (m *editorModel) updateEditing(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.stopEditing()
		return m, nil

	case "enter":
		m.err = m.apply(m.fields[m.selected], m.input.Value())
		if m.err == nil {
			m.status = "set " + m.fields[m.selected]
			m.dirty = true
		}
		m.stopEditing()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m *editorModel) stopEditing() {
	m.editing = false
	m.input.Blur()
}

func (m *editorModel) apply(path, input string) error {
	cur, err := m.inst.GetPath(path)
	if err != nil {
		return err
	}
	x, err := parseMember(input, cur)
	if err != nil {
		return err
	}
	return m.inst.SetPath(path, x)
}

func (m *editorModel) move(record int) {
	if record < 0 || record >= m.records {
		return
	}
	if err := m.bind(record); err != nil {
		m.err = err
		return
	}
	m.status = ""
	m.err = nil
}

func (m *editorModel) write() {
	if m.save == nil {
		m.status = "no data file to write"
		return
	}
	if err := m.save(m.data); err != nil {
		m.err = err
		return
	}
	m.dirty = false
	m.status = fmt.Sprintf("wrote %d bytes", len(m.data))
}

// rawValue renders cur the way parseMember reads it back.
func rawValue(cur any) string {
	switch v := cur.(type) {
	case []byte:
		if i := bytes.IndexByte(v, 0); i >= 0 {
			v = v[:i]
		}
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(cur)
}

func (m *editorModel) View() string {
	var b strings.Builder

	b.WriteString(m.st.title.Render(m.def.String()))
	b.WriteString(" ")
	b.WriteString(m.title)
	fmt.Fprintf(&b, "  record %d/%d @ 0x%x", m.record+1, m.records, m.inst.Base())
	if m.dirty {
		b.WriteString(" *")
	}
	b.WriteString("\n\n")

	if m.hex {
		b.WriteString(m.inst.Inspect())
	} else {
		for i, path := range m.fields {
			line := m.st.name.Render(path) + " = "
			if v, err := m.inst.GetPath(path); err != nil {
				line += m.st.err.Render(err.Error())
			} else {
				line += m.st.value.Render(rawValue(v))
			}
			if i == m.selected {
				b.WriteString(m.st.selected.Render("> ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if m.editing {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(m.st.help.Render("enter set • esc cancel"))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(m.st.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.st.value.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.st.help.Render("↑/↓ select • enter edit • ←/→ record • x hex • w write • q quit"))
	return b.String()
}

func runEditor(m *editorModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
