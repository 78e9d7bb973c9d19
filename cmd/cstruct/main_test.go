package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl"
)

func parseLittle(t *testing.T, src string) *ctype.Composite {
	t.Helper()
	def, err := cstruct.ParseComposite(src, &decl.Config{ByteOrder: ctype.LittleEndian})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return def
}

func TestParseProfile(t *testing.T) {
	p, err := parseProfile([]byte(`
definitions: |
  struct prof_rec { int a; };
type: prof_rec
byte_order: big
offset: 16
count: 2
defines:
  PROF_B: 4
  PROF_A: PROF_B * 2
`))
	if err != nil {
		t.Fatalf("parseProfile: %v", err)
	}
	if p.Type != "prof_rec" || p.ByteOrder != "big" || p.Offset != 16 || p.Count != 2 {
		t.Errorf("got %+v", p)
	}
	defs, err := p.defines()
	if err != nil {
		t.Fatalf("defines: %v", err)
	}
	want := []define{{"PROF_B", "4"}, {"PROF_A", "PROF_B * 2"}}
	if len(defs) != len(want) {
		t.Fatalf("got %d defines, want %d", len(defs), len(want))
	}
	for i := range want {
		if defs[i] != want[i] {
			t.Errorf("define %d: got %+v, want %+v", i, defs[i], want[i])
		}
	}

	if _, err := parseProfile([]byte("offset: -1")); err == nil {
		t.Error("expected error for negative offset")
	}
	seq, err := parseProfile([]byte("defines: [1, 2]"))
	if err != nil {
		t.Fatalf("parseProfile: %v", err)
	}
	if _, err := seq.defines(); err == nil {
		t.Error("expected error for sequence defines")
	}
}

func TestMerge(t *testing.T) {
	p := &profile{Type: "from_profile", ByteOrder: "little", Offset: 8, Count: 3}
	o := options{typeName: "from_flag", offset: 0}
	o.merge(p, map[string]bool{"type": true})
	if o.typeName != "from_flag" {
		t.Errorf("type: got %s, want from_flag", o.typeName)
	}
	if o.order != "little" || o.offset != 8 || o.count != 3 {
		t.Errorf("got order %s offset %d count %d", o.order, o.offset, o.count)
	}
}

func TestLayoutRows(t *testing.T) {
	def := parseLittle(t, `
		struct lay_inner { uint8_t x; uint16_t y; };
		struct lay_rec {
			uint32_t id;
			struct lay_inner in;
			union { int32_t i; float f; };
			char name[5];
		};`)
	rows := layoutRows(def, "", 0)
	want := []struct {
		name   string
		offset int
		size   int
	}{
		{"id", 0, 4},
		{"in", 4, 3},
		{"in.x", 4, 1},
		{"in.y", 5, 2},
		{"i", 7, 4},
		{"f", 7, 4},
		{"name", 11, 5},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, w := range want {
		r := rows[i]
		if r.name != w.name || r.offset != w.offset || r.size != w.size {
			t.Errorf("row %d: got %s@%d/%d, want %s@%d/%d", i, r.name, r.offset, r.size, w.name, w.offset, w.size)
		}
	}

	out := renderLayout(def, newStyles(false))
	for _, s := range []string{"struct lay_rec", "size 16", "char[5]", "in.y"} {
		if !strings.Contains(out, s) {
			t.Errorf("layout missing %q:\n%s", s, out)
		}
	}
}

func TestDumpRecords(t *testing.T) {
	def := parseLittle(t, `
		enum dump_kind { DUMP_OFF, DUMP_ON };
		struct dump_rec {
			uint16_t id;
			char name[4];
			enum dump_kind kind;
		};`)
	data := []byte{
		0x01, 0x02, 'a', 'b', 0, 0, 1, 0, 0, 0,
		0x03, 0x00, 'c', 'd', 'e', 'f', 0, 0, 0, 0,
		0xff,
	}
	var buf bytes.Buffer
	n, err := dumpRecords(&buf, def, bytes.NewReader(data), 0, 0, newStyles(false))
	if err != nil {
		t.Fatalf("dumpRecords: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d records, want 2", n)
	}
	out := buf.String()
	for _, s := range []string{
		"struct dump_rec #0 @ 0x0",
		"id = 513",
		`name = "ab"`,
		"kind = DUMP_ON (1)",
		"struct dump_rec #1 @ 0xa",
		`name = "cdef"`,
		"kind = DUMP_OFF (0)",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("dump missing %q:\n%s", s, out)
		}
	}

	buf.Reset()
	n, err = dumpRecords(&buf, def, bytes.NewReader(data), 0, 1, newStyles(false))
	if err != nil {
		t.Fatalf("dumpRecords: %v", err)
	}
	if n != 1 {
		t.Errorf("count: got %d records, want 1", n)
	}
}

func TestParseMember(t *testing.T) {
	tests := []struct {
		input string
		cur   any
		want  any
		err   bool
	}{
		{"-3", int64(0), int64(-3), false},
		{"0x10", uint64(0), uint64(16), false},
		{"RED", int64(0), "RED", false},
		{"1.5", float64(0), 1.5, false},
		{"abc", []byte{0, 0}, []byte("abc"), false},
		{"x", uint64(0), nil, true},
		{"x", float64(0), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseMember(tt.input, tt.cur)
			if tt.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMember: %v", err)
			}
			if b, ok := got.([]byte); ok {
				if string(b) != string(tt.want.([]byte)) {
					t.Errorf("got %q, want %q", b, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEditor(t *testing.T) {
	def := parseLittle(t, `
		struct edit_rec {
			uint16_t id;
			char name[4];
			int8_t vals[2];
		};`)
	data := make([]byte, 16)
	var saved []byte
	m, err := newEditor(def, data, 0, "test", func(b []byte) error {
		saved = append([]byte(nil), b...)
		return nil
	}, newStyles(false))
	if err != nil {
		t.Fatalf("newEditor: %v", err)
	}

	wantFields := []string{"id", "name", "vals[0]", "vals[1]"}
	if strings.Join(m.fields, ",") != strings.Join(wantFields, ",") {
		t.Fatalf("fields: got %v, want %v", m.fields, wantFields)
	}
	if m.records != 2 {
		t.Errorf("records: got %d, want 2", m.records)
	}

	m.Update(key("enter"))
	if !m.editing {
		t.Fatal("enter did not start editing")
	}
	m.input.SetValue("513")
	m.Update(key("enter"))
	if m.err != nil {
		t.Fatalf("edit: %v", m.err)
	}
	if data[0] != 0x01 || data[1] != 0x02 {
		t.Errorf("id bytes: got % x, want 01 02", data[:2])
	}

	m.Update(key("n"))
	if m.record != 1 {
		t.Fatalf("record: got %d, want 1", m.record)
	}
	m.Update(key("down"))
	m.Update(key("enter"))
	m.input.SetValue("ab")
	m.Update(key("enter"))
	if string(data[10:14]) != "ab\x00\x00" {
		t.Errorf("name bytes: got %q, want ab", data[10:14])
	}

	m.Update(key("down"))
	m.Update(key("down"))
	m.Update(key("enter"))
	m.input.SetValue("-2")
	m.Update(key("enter"))
	if int8(data[15]) != -2 {
		t.Errorf("vals[1]: got %d, want -2", int8(data[15]))
	}

	m.Update(key("enter"))
	m.input.SetValue("300")
	m.Update(key("enter"))
	if m.err == nil {
		t.Error("expected overflow error for int8")
	}

	m.Update(key("w"))
	if !bytes.Equal(saved, data) {
		t.Error("write did not save the buffer")
	}

	m.Update(key("x"))
	if !strings.Contains(m.View(), "00000000  ") {
		t.Errorf("hex view missing dump:\n%s", m.View())
	}

	if _, err := newEditor(def, make([]byte, 7), 0, "short", nil, newStyles(false)); err == nil {
		t.Error("expected error for data shorter than one record")
	}
}

func TestShell(t *testing.T) {
	s := newShell(ctype.LittleEndian, newStyles(false))

	steps := []struct {
		line string
		want string
	}{
		{"define SHELL_N 3", "SHELL_N = 3"},
		{"eval SHELL_N * 2", "6"},
		{"struct shell_rec {", ""},
		{"    uint32_t a;", ""},
		{"    uint8_t b[SHELL_N];", ""},
		{"};", "struct shell_rec (size 7)"},
		{"sizeof struct shell_rec", "7"},
		{"typedef unsigned short shell_word", ""},
		{"sizeof shell_word", "2"},
		{"order big", "big"},
		{"order", "big"},
	}
	for _, st := range steps {
		got, err := s.exec(st.line)
		if err != nil {
			t.Fatalf("%q: %v", st.line, err)
		}
		if got != st.want {
			t.Errorf("%q: got %q, want %q", st.line, got, st.want)
		}
	}

	out, err := s.exec("wit shell_rec")
	if err != nil {
		t.Fatalf("wit: %v", err)
	}
	if !strings.Contains(out, "record shell-rec {") || !strings.Contains(out, "b: list<u8>,") {
		t.Errorf("wit output:\n%s", out)
	}

	out, err = s.exec("layout shell_rec")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !strings.Contains(out, "uint8[3]") {
		t.Errorf("layout output:\n%s", out)
	}

	out, err = s.exec("types")
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if !strings.Contains(out, "struct shell_rec") {
		t.Errorf("types output:\n%s", out)
	}

	if _, err := s.exec("layout shell_missing"); err == nil {
		t.Error("expected error for unknown tag")
	}
	if _, err := s.exec("undef SHELL_N"); err != nil {
		t.Fatalf("undef: %v", err)
	}
	if _, err := s.exec("getdef SHELL_N"); err == nil {
		t.Error("expected error after undef")
	}
}

func TestRunWIT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.h")
	src := "enum run_mode { RUN_A, RUN_B };\nstruct run_rec { uint8_t flag; enum run_mode mode; };\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := run(options{defFile: path, order: "little", wit: true}, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	for _, s := range []string{"enum run-mode {", "record run-rec {", "mode: run-mode,"} {
		if !strings.Contains(out, s) {
			t.Errorf("wit missing %q:\n%s", s, out)
		}
	}

	buf.Reset()
	data := filepath.Join(dir, "run.bin")
	if err := os.WriteFile(data, []byte{9, 9, 1, 0, 0, 0, 0, 0, 0, 0}, 0o644); err != nil {
		t.Fatal(err)
	}
	opts := options{defFile: path, order: "little", typeName: "run_rec", dataFile: data, offset: 1}
	if err := run(opts, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "mode = RUN_B (1)") || !strings.Contains(buf.String(), "1 records") {
		t.Errorf("dump output:\n%s", buf.String())
	}
}
