package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/liangmanlin/readline"
	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/codec"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl"
	"github.com/wippyai/cstruct/witmap"
)

var shellHelp = []string{
	"  define NAME EXPR     set a constant",
	"  undef NAME           remove a constant",
	"  getdef NAME          print a constant",
	"  eval EXPR            evaluate a constant expression",
	"  typedef TYPE ALIAS   add a type alias (C typedefs ending in ';' work too)",
	"  sizeof TYPE          print the size of a type",
	"  layout TAG           print the member layout of a struct or union",
	"  wit TAG              print a struct, union or enum as WIT",
	"  new TAG              print a zeroed record as a hex dump",
	"  types                list structs, unions and enums",
	"  order [ORDER]        show or set the byte order of new declarations",
	"  help                 this text",
	"Any other input is read as C declarations, ending at a ';' outside braces.",
}

// shell evaluates commands and accumulates declarations that span lines.
type shell struct {
	pending strings.Builder
	order   ctype.ByteOrder
	st      styles
	depth   int
}

func newShell(order ctype.ByteOrder, st styles) *shell {
	return &shell{order: order, st: st}
}

// pendingInput reports whether a declaration is incomplete.
func (s *shell) pendingInput() bool { return s.pending.Len() > 0 }

// exec runs one input line and returns its output.
func (s *shell) exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if s.pendingInput() {
		return s.declare(line)
	}
	if line == "" {
		return "", nil
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		return strings.Join(shellHelp, "\n"), nil

	case "define":
		name, expr, ok := strings.Cut(arg, " ")
		if !ok {
			return "", fmt.Errorf("usage: define NAME EXPR")
		}
		if err := cstruct.Define(name, strings.TrimSpace(expr)); err != nil {
			return "", err
		}
		return s.getdef(name)

	case "undef":
		return "", cstruct.Undef(arg)

	case "getdef":
		return s.getdef(arg)

	case "eval":
		n, err := cstruct.Eval(arg)
		if err != nil {
			return "", err
		}
		return n.String(), nil

	case "typedef":
		if strings.ContainsAny(arg, "{;") {
			break
		}
		i := strings.LastIndexByte(arg, ' ')
		if i < 0 {
			return "", fmt.Errorf("usage: typedef TYPE ALIAS")
		}
		cstruct.Typedef(arg[:i], arg[i+1:])
		return "", nil

	case "sizeof":
		n, err := cstruct.Sizeof(arg)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil

	case "layout":
		c, err := s.composite(arg)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(renderLayout(c, s.st), "\n"), nil

	case "wit":
		return s.wit(arg)

	case "new":
		c, err := s.composite(arg)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(codec.NewInstance(c).Inspect(), "\n"), nil

	case "types":
		return s.types(), nil

	case "order":
		if arg != "" {
			o, err := ctype.ParseByteOrder(arg)
			if err != nil {
				return "", err
			}
			s.order = o
		}
		return s.order.String(), nil
	}
	return s.declare(line)
}

func (s *shell) getdef(name string) (string, error) {
	n, err := cstruct.GetDef(name)
	if err != nil {
		return "", err
	}
	return name + " = " + n.String(), nil
}

// declare buffers line and parses once braces balance and the text ends
// in ';'. #define lines stand alone.
func (s *shell) declare(line string) (string, error) {
	s.pending.WriteString(line)
	s.pending.WriteByte('\n')
	s.depth += strings.Count(line, "{") - strings.Count(line, "}")

	complete := s.depth <= 0 && strings.HasSuffix(line, ";")
	if strings.HasPrefix(line, "#") && s.depth == 0 {
		complete = true
	}
	if !complete {
		return "", nil
	}

	src := s.pending.String()
	s.pending.Reset()
	s.depth = 0

	types, err := cstruct.ParseAll(src, &decl.Config{ByteOrder: s.order})
	if err != nil {
		return "", err
	}
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, fmt.Sprintf("%s (size %d)", t, t.Size()))
	}
	return strings.Join(out, "\n"), nil
}

func (s *shell) composite(tag string) (*ctype.Composite, error) {
	c, ok := cstruct.Registry().Composite(tag)
	if !ok {
		return nil, fmt.Errorf("no struct or union %q", tag)
	}
	return c, nil
}

func (s *shell) wit(tag string) (string, error) {
	m := witmap.New()
	if e, ok := cstruct.Registry().Enum(tag); ok {
		m.Enum(e)
	} else {
		c, err := s.composite(tag)
		if err != nil {
			return "", err
		}
		if _, err := m.Composite(c, ""); err != nil {
			return "", err
		}
	}
	return strings.TrimRight(witmap.Render(m.TypeDefs()), "\n"), nil
}

func (s *shell) types() string {
	reg := cstruct.Registry()
	var lines []string
	for _, c := range reg.Composites() {
		lines = append(lines, fmt.Sprintf("%-32s %d", c, c.Size()))
	}
	for _, e := range reg.Enums() {
		lines = append(lines, fmt.Sprintf("%-32s %d", e, e.Size()))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// tags returns the registered composite and enum tags for completion.
func tags() []string {
	reg := cstruct.Registry()
	var out []string
	for _, c := range reg.Composites() {
		out = append(out, c.Name())
	}
	for _, e := range reg.Enums() {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func tagItems() []readline.PrefixCompleterInterface {
	names := tags()
	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}
	return items
}

func runShell(s *shell) error {
	tagged := []*readline.PrefixCompleter{
		readline.PcItem("layout"),
		readline.PcItem("wit"),
		readline.PcItem("new"),
		readline.PcItem("sizeof"),
	}
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("define"),
		readline.PcItem("undef"),
		readline.PcItem("getdef"),
		readline.PcItem("eval"),
		readline.PcItem("typedef"),
		readline.PcItem("types"),
		readline.PcItem("order",
			readline.PcItem("native"),
			readline.PcItem("little"),
			readline.PcItem("big"),
		),
		readline.PcItem("struct"),
		readline.PcItem("union"),
		readline.PcItem("enum"),
	}
	refresh := func() {
		children := tagItems()
		for _, p := range tagged {
			p.SetChildren(children)
		}
	}
	for _, p := range tagged {
		items = append(items, p)
	}
	refresh()

	l, err := readline.NewEx(&readline.Config{
		Prompt:            "cstruct> ",
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	fmt.Fprintln(l.Stdout(), "cstruct shell, type help for commands")
	for {
		if s.pendingInput() {
			l.SetPrompt("     ... ")
		} else {
			l.SetPrompt("cstruct> ")
		}
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		}
		if strings.TrimSpace(line) == "exit" && !s.pendingInput() {
			return nil
		}
		out, err := s.exec(line)
		if err != nil {
			fmt.Fprintln(l.Stderr(), s.st.err.Render("error: "+err.Error()))
			continue
		}
		if out != "" {
			fmt.Fprintln(l.Stdout(), out)
		}
		refresh()
	}
}
