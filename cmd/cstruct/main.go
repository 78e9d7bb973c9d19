package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wippyai/cstruct"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl"
	"github.com/wippyai/cstruct/witmap"
	"go.uber.org/zap"
)

type options struct {
	defFile     string
	typeName    string
	dataFile    string
	order       string
	offset      int64
	count       int
	layout      bool
	wit         bool
	interactive bool
	shell       bool
	prof        *profile
}

func main() {
	var (
		defFile     = flag.String("def", "", "Path to a file of C declarations")
		typeName    = flag.String("type", "", "Struct or union tag of each record")
		dataFile    = flag.String("data", "", "Path to a file of fixed-size records")
		order       = flag.String("order", "", "Byte order: native, little or big (@, <, >)")
		offset      = flag.Int64("offset", 0, "Byte offset of the first record")
		count       = flag.Int("count", 0, "Number of records to print (0 for all)")
		configFile  = flag.String("config", "", "YAML profile with definitions and defaults")
		layout      = flag.Bool("layout", false, "Print the member layout table and exit")
		witOut      = flag.Bool("wit", false, "Print the declarations as WIT types and exit")
		interactive = flag.Bool("i", false, "Edit records in a TUI")
		shellMode   = flag.Bool("shell", false, "Start an interactive declaration shell")
		verbose     = flag.Bool("v", false, "Log parser and codec events")
	)
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()
	cstruct.SetLogger(log)

	opts := options{
		defFile:     *defFile,
		typeName:    *typeName,
		dataFile:    *dataFile,
		order:       *order,
		offset:      *offset,
		count:       *count,
		layout:      *layout,
		wit:         *witOut,
		interactive: *interactive,
		shell:       *shellMode,
	}
	if *configFile != "" {
		p, err := loadProfile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		opts.merge(p, set)
	}

	if opts.defFile == "" && opts.prof == nil && !opts.shell {
		fmt.Fprintln(os.Stderr, "Usage: cstruct -def <file.h> -type <tag> [-data <file>] [-order little] [-offset n] [-count n]")
		fmt.Fprintln(os.Stderr, "       cstruct -def <file.h> -type <tag> -layout")
		fmt.Fprintln(os.Stderr, "       cstruct -def <file.h> -wit")
		fmt.Fprintln(os.Stderr, "       cstruct -def <file.h> -type <tag> -data <file> -i  (interactive editor)")
		fmt.Fprintln(os.Stderr, "       cstruct -shell")
		fmt.Fprintln(os.Stderr, "       cstruct -config profile.yaml")
		os.Exit(1)
	}

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// merge fills options from p. Flags given on the command line win.
func (o *options) merge(p *profile, set map[string]bool) {
	o.prof = p
	if !set["type"] && p.Type != "" {
		o.typeName = p.Type
	}
	if !set["data"] && p.Data != "" {
		o.dataFile = p.Data
	}
	if !set["order"] && p.ByteOrder != "" {
		o.order = p.ByteOrder
	}
	if !set["offset"] && p.Offset != 0 {
		o.offset = p.Offset
	}
	if !set["count"] && p.Count != 0 {
		o.count = p.Count
	}
}

// source collects the declaration text from the profile and -def.
func (o *options) source() (string, error) {
	var parts []string
	if o.prof != nil {
		src, err := o.prof.source()
		if err != nil {
			return "", err
		}
		parts = append(parts, src)
	}
	if o.defFile != "" {
		data, err := os.ReadFile(o.defFile)
		if err != nil {
			return "", fmt.Errorf("read definitions: %w", err)
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n"), nil
}

func run(opts options, out io.Writer) error {
	order, err := ctype.ParseByteOrder(opts.order)
	if err != nil {
		return err
	}
	st := newStyles(out == os.Stdout && isTerminal(os.Stdout))

	if opts.prof != nil {
		defs, err := opts.prof.defines()
		if err != nil {
			return err
		}
		for _, d := range defs {
			if err := cstruct.Define(d.name, d.expr); err != nil {
				return fmt.Errorf("define %s: %w", d.name, err)
			}
		}
	}

	src, err := opts.source()
	if err != nil {
		return err
	}
	types, err := cstruct.ParseAll(src, &decl.Config{ByteOrder: order})
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if opts.shell {
		return runShell(newShell(order, st))
	}
	if opts.wit {
		return writeWIT(out, types)
	}

	def, err := selectComposite(opts.typeName, types)
	if err != nil {
		return err
	}
	if opts.layout {
		_, err := io.WriteString(out, renderLayout(def, st))
		return err
	}
	if opts.interactive {
		return edit(def, opts, st)
	}
	if opts.dataFile == "" {
		_, err := io.WriteString(out, renderLayout(def, st))
		return err
	}
	return dump(def, opts, out, st)
}

// selectComposite picks the -type tag, or the last composite declared.
func selectComposite(tag string, types []ctype.Type) (*ctype.Composite, error) {
	if tag != "" {
		c, ok := cstruct.Registry().Composite(strings.TrimPrefix(strings.TrimPrefix(tag, "struct "), "union "))
		if !ok {
			return nil, fmt.Errorf("no struct or union %q", tag)
		}
		return c, nil
	}
	for i := len(types) - 1; i >= 0; i-- {
		if c, ok := types[i].(*ctype.Composite); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no struct or union declared, use -type")
}

func writeWIT(out io.Writer, types []ctype.Type) error {
	m := witmap.New()
	for _, t := range types {
		switch v := t.(type) {
		case *ctype.Composite:
			if _, err := m.Composite(v, v.Name()); err != nil {
				return err
			}
		case *ctype.Enum:
			m.Enum(v)
		}
	}
	_, err := io.WriteString(out, witmap.Render(m.TypeDefs()))
	return err
}

func dump(def *ctype.Composite, opts options, out io.Writer, st styles) error {
	f, err := os.Open(opts.dataFile)
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	defer f.Close()
	if opts.offset > 0 {
		if _, err := f.Seek(opts.offset, io.SeekStart); err != nil {
			return fmt.Errorf("seek data: %w", err)
		}
	}
	w := bufio.NewWriter(out)
	n, err := dumpRecords(w, def, bufio.NewReader(f), opts.offset, opts.count, st)
	if err != nil {
		w.Flush()
		return err
	}
	fmt.Fprintf(w, "%d records\n", n)
	return w.Flush()
}

func edit(def *ctype.Composite, opts options, st styles) error {
	var (
		data  []byte
		save  func([]byte) error
		title = "(new record)"
	)
	if opts.dataFile != "" {
		b, err := os.ReadFile(opts.dataFile)
		if err != nil {
			return fmt.Errorf("read data: %w", err)
		}
		data = b
		title = opts.dataFile
		save = func(b []byte) error { return os.WriteFile(opts.dataFile, b, 0o644) }
	} else {
		data = make([]byte, int(opts.offset)+def.Size())
	}
	m, err := newEditor(def, data, int(opts.offset), title, save, st)
	if err != nil {
		return err
	}
	return runEditor(m)
}
