package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"coord-api/internal/logger"
	"coord-api/internal/utils"
	"coord-api/pkg/coordtransform"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type options struct {
	in, out  string
	from, to coordtransform.System
	workers  int
	format   string
	strict   bool
	exact    bool
}

// inputLine：一行有效输入及其行号（从 1 开始）
type inputLine struct {
	No    int
	Point coordtransform.GeoPoint
}

// lineError：无法解析的输入行
type lineError struct {
	No  int
	Err error
}

func (e lineError) Error() string { return fmt.Sprintf("line %d: %v", e.No, e.Err) }

type result struct {
	Line   int                     `json:"line" yaml:"line"`
	Input  coordtransform.GeoPoint `json:"input" yaml:"input"`
	Output coordtransform.GeoPoint `json:"output" yaml:"output"`
}

type document struct {
	From   string   `json:"from" yaml:"from"`
	To     string   `json:"to" yaml:"to"`
	Points []result `json:"points" yaml:"points"`
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("coord-batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	var from, to string
	fs.StringVar(&o.in, "in", "", "input file (default stdin)")
	fs.StringVar(&o.out, "out", "", "output file (default stdout)")
	fs.StringVar(&from, "from", "wgs84", "source system: wgs84|gcj02|bd09")
	fs.StringVar(&to, "to", "gcj02", "target system: wgs84|gcj02|bd09")
	fs.IntVar(&o.workers, "workers", utils.EnvInt("COORD_BATCH_WORKERS", runtime.NumCPU()), "parallel workers")
	fs.StringVar(&o.format, "format", "csv", "output format: csv|json|yaml")
	fs.BoolVar(&o.strict, "strict", false, "exit 1 when any line is invalid")
	fs.BoolVar(&o.exact, "exact", false, "use the iterative GCJ-02 inverse for gcj02->wgs84")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	var err error
	if o.from, err = coordtransform.ParseSystem(from); err != nil {
		return o, fmt.Errorf("-from: %w", err)
	}
	if o.to, err = coordtransform.ParseSystem(to); err != nil {
		return o, fmt.Errorf("-to: %w", err)
	}
	switch o.format {
	case "csv", "json", "yaml":
	default:
		return o, fmt.Errorf("-format: unsupported %q", o.format)
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	return o, nil
}

// 文档注释：读取输入
// 约束：跳过空行与 # 注释；允许首行为 "lng,lat" 表头；非法行收集为 lineError 不中断读取。
func readLines(r io.Reader) ([]inputLine, []lineError, error) {
	var lines []inputLine
	var bad []lineError
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	no := 0
	for sc.Scan() {
		no++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if no == 1 && strings.EqualFold(strings.ReplaceAll(s, " ", ""), "lng,lat") {
			continue
		}
		p, err := coordtransform.ParseGeoPoint(s)
		if err != nil {
			bad = append(bad, lineError{No: no, Err: err})
			continue
		}
		lines = append(lines, inputLine{No: no, Point: p})
	}
	return lines, bad, sc.Err()
}

// 文档注释：并发换算
// 背景：按输入下标写回结果切片，并发不影响输出顺序。
func convertAll(ctx context.Context, lines []inputLine, o options) ([]result, error) {
	out := make([]result, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, ln := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = result{Line: ln.No, Input: ln.Point, Output: convertPoint(ln.Point, o)}
			return nil
		})
	}
	return out, g.Wait()
}

// convertPoint：-exact 时凡以 WGS84 为目标的换算，GCJ-02 → WGS84 一段改用迭代反解
func convertPoint(p coordtransform.GeoPoint, o options) coordtransform.GeoPoint {
	if !o.exact || o.to != coordtransform.WGS84 || o.from == coordtransform.WGS84 {
		return coordtransform.Convert(p, o.from, o.to)
	}
	return coordtransform.GCJ02ToWGS84Exact(coordtransform.Convert(p, o.from, coordtransform.GCJ02))
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func writeResults(w io.Writer, format string, o options, rs []result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document{From: o.from.String(), To: o.to.String(), Points: rs})
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{From: o.from.String(), To: o.to.String(), Points: rs}); err != nil {
			return err
		}
		return enc.Close()
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "line,in_lng,in_lat,out_lng,out_lat")
	for _, r := range rs {
		fmt.Fprintf(bw, "%d,%s,%s,%s,%s\n", r.Line,
			formatFloat(r.Input.Lng), formatFloat(r.Input.Lat),
			formatFloat(r.Output.Lng), formatFloat(r.Output.Lat))
	}
	return bw.Flush()
}

// writeFile 写出到文件；Close 失败同样视为写入失败
func writeFile(path, format string, o options, rs []result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeResults(f, format, o, rs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	l := logger.SetupWriter(stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		l.Error("batch_flags_error", "err", err)
		return 2
	}
	in := stdin
	if o.in != "" {
		f, err := os.Open(o.in)
		if err != nil {
			l.Error("batch_open_error", "path", o.in, "err", err)
			return 1
		}
		defer f.Close()
		in = f
	}
	lines, bad, err := readLines(in)
	if err != nil {
		l.Error("batch_read_error", "err", err)
		return 1
	}
	for _, b := range bad {
		l.Warn("batch_line_invalid", "line", b.No, "err", b.Err)
	}
	rs, err := convertAll(context.Background(), lines, o)
	if err != nil {
		l.Error("batch_convert_error", "err", err)
		return 1
	}
	if o.out == "" {
		err = writeResults(stdout, o.format, o, rs)
	} else {
		err = writeFile(o.out, o.format, o, rs)
	}
	if err != nil {
		l.Error("batch_write_error", "path", o.out, "err", err)
		return 1
	}
	l.Info("batch_done", "from", o.from.String(), "to", o.to.String(), "ok", len(rs), "invalid", len(bad), "workers", o.workers)
	if o.strict && len(bad) > 0 {
		return 1
	}
	return 0
}
