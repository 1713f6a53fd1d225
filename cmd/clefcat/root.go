package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/valyala/fastjson"

	"pkt.systems/tmplog"
	"pkt.systems/tmplog/ansi"
)

type options struct {
	minLevel   string
	format     string
	timeFormat string
	palette    string
	utc        bool
	noColor    bool
	forceColor bool
	strict     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "clefcat [file...]",
		Short: "Render CLEF log files",
		Long: `clefcat reads compact log event format lines from the named files, or
stdin when none are given, and prints them as console lines. Files ending in
.zst are decompressed.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.minLevel, "min-level", "l", "trace", "drop events below this level")
	flags.StringVarP(&opts.format, "format", "f", "console", "output format (console, json, clef)")
	flags.StringVar(&opts.timeFormat, "time-format", "", "timestamp layout (Go reference time)")
	flags.StringVar(&opts.palette, "palette", "", "console colour palette")
	flags.BoolVar(&opts.utc, "utc", false, "print timestamps in UTC")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colour")
	flags.BoolVar(&opts.forceColor, "force-color", false, "colour even when stdout is not a terminal")
	flags.BoolVar(&opts.strict, "strict", false, "fail on the first malformed line")
	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	minLevel, ok := tmplog.ParseLevel(opts.minLevel)
	if !ok {
		return errors.Errorf("unknown level %q", opts.minLevel)
	}
	format, ok := tmplog.ParseFormat(opts.format)
	if !ok {
		return errors.Errorf("unknown format %q", opts.format)
	}
	encOpts := tmplog.EncoderOptions{
		TimeFormat: opts.timeFormat,
		UTC:        opts.utc,
		NoColor:    opts.noColor,
		ForceColor: opts.forceColor,
	}
	if opts.palette != "" {
		palette, ok := ansi.LookupPalette(opts.palette)
		if !ok {
			return errors.Errorf("unknown palette %q", opts.palette)
		}
		encOpts.Palette = palette
	}
	if !opts.noColor && tmplog.IsTerminal(cmd.OutOrStdout()) {
		// Colour detection cannot see through the buffered writer.
		encOpts.ForceColor = true
	}
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	c := &catter{
		sink:     tmplog.NewSink(out, format, encOpts),
		minLevel: minLevel,
		strict:   opts.strict,
		warn:     cmd.ErrOrStderr(),
	}
	if len(args) == 0 {
		return c.process(cmd.InOrStdin(), "<stdin>")
	}
	for _, path := range args {
		if err := c.processFile(path); err != nil {
			return err
		}
	}
	return nil
}

type catter struct {
	sink     tmplog.Sink
	minLevel tmplog.Level
	strict   bool
	warn     io.Writer
	parser   fastjson.ParserPool
}

func (c *catter) processFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()
	var r io.Reader = f
	if isZstd(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "%s: zstd", path)
		}
		defer dec.Close()
		r = dec
	}
	return c.process(r, path)
}

func isZstd(path string) bool {
	return len(path) > 4 && path[len(path)-4:] == ".zst"
}

func (c *catter) process(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := c.processLine(line); err != nil {
			err = errors.Wrapf(err, "%s:%d", name, lineNo)
			if c.strict {
				return err
			}
			fmt.Fprintln(c.warn, "clefcat: warning:", err)
		}
	}
	return errors.Wrap(scanner.Err(), name)
}

func (c *catter) processLine(line []byte) error {
	p := c.parser.Get()
	defer c.parser.Put(p)
	v, err := p.ParseBytes(line)
	if err != nil {
		return err
	}
	rec, err := decodeEvent(v)
	if err != nil {
		return err
	}
	if !rec.Level.Enabled(c.minLevel) {
		return nil
	}
	_, err = c.sink.Handle(rec)
	return err
}
