package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"coord-api/pkg/coordtransform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sample = `lng,lat
# beijing
116.404,39.915

-74.006, 40.7128
not,a point
116.404
`

func TestReadLines(t *testing.T) {
	lines, bad, err := readLines(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, inputLine{No: 3, Point: coordtransform.NewGeoPoint(116.404, 39.915)}, lines[0])
	assert.Equal(t, 5, lines[1].No)
	require.Len(t, bad, 2)
	assert.Equal(t, 6, bad[0].No)
	assert.Equal(t, 7, bad[1].No)
	assert.Contains(t, bad[0].Error(), "line 6")
}

func TestRunCSV(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-from", "wgs84", "-to", "gcj02"}, strings.NewReader(sample), &out, &errOut)
	assert.Equal(t, 0, code)
	rows := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, rows, 3)
	assert.Equal(t, "line,in_lng,in_lat,out_lng,out_lat", rows[0])
	cols := strings.Split(rows[1], ",")
	require.Len(t, cols, 5)
	assert.Equal(t, []string{"3", "116.404", "39.915"}, cols[:3])
	lng, err := strconv.ParseFloat(cols[3], 64)
	require.NoError(t, err)
	lat, err := strconv.ParseFloat(cols[4], 64)
	require.NoError(t, err)
	assert.InDelta(t, 116.41024449916938, lng, 1e-9)
	assert.InDelta(t, 39.91640428150164, lat, 1e-9)
	assert.Equal(t, "5,-74.006,40.7128,-74.006,40.7128", rows[2])
	assert.Contains(t, errOut.String(), "batch_line_invalid")
}

func TestRunStrictFailsOnBadLines(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 1, run([]string{"-strict"}, strings.NewReader(sample), &out, &errOut))
	assert.Equal(t, 0, run([]string{"-strict"}, strings.NewReader("116.404,39.915\n"), &out, &errOut))
}

func TestRunJSONPreservesOrder(t *testing.T) {
	var in strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&in, "%f,%f\n", 100+float64(i)*0.1, 30+float64(i)*0.05)
	}
	var out, errOut bytes.Buffer
	code := run([]string{"-format", "json", "-workers", "8", "-from", "gcj02", "-to", "bd09"}, strings.NewReader(in.String()), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	var doc document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "gcj02", doc.From)
	assert.Equal(t, "bd09", doc.To)
	require.Len(t, doc.Points, 200)
	for i, r := range doc.Points {
		assert.Equal(t, i+1, r.Line)
		assert.Equal(t, coordtransform.GCJ02ToBD09(r.Input), r.Output)
	}
}

func TestRunYAMLToFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.csv")
	outPath := filepath.Join(dir, "out.yaml")
	require.NoError(t, os.WriteFile(inPath, []byte("116.41024449916938,39.91640428150164\n"), 0o644))
	var stdout, errOut bytes.Buffer
	code := run([]string{"-in", inPath, "-out", outPath, "-format", "yaml", "-from", "gcj02", "-to", "wgs84", "-exact"}, nil, &stdout, &errOut)
	require.Equal(t, 0, code, errOut.String())

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc document
	require.NoError(t, yaml.Unmarshal(b, &doc))
	require.Len(t, doc.Points, 1)
	assert.InDelta(t, 116.404, doc.Points[0].Output.Lng, 1e-8)
	assert.InDelta(t, 39.915, doc.Points[0].Output.Lat, 1e-8)
}

func TestRunExactFromBD09(t *testing.T) {
	wgs := coordtransform.NewGeoPoint(116.404, 39.915)
	bd := coordtransform.WGS84ToBD09(wgs)
	want := coordtransform.GCJ02ToWGS84Exact(coordtransform.BD09ToGCJ02(bd))

	rs, err := convertAll(context.Background(), []inputLine{{No: 1, Point: bd}},
		options{from: coordtransform.BD09, to: coordtransform.WGS84, exact: true, workers: 1})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, want, rs[0].Output)
	assert.InDelta(t, wgs.Lng, rs[0].Output.Lng, 5e-6)
	assert.InDelta(t, wgs.Lat, rs[0].Output.Lat, 5e-6)

	plain := convertPoint(bd, options{from: coordtransform.BD09, to: coordtransform.WGS84})
	assert.Equal(t, coordtransform.BD09ToWGS84(bd), plain)
}

func TestRunExactIgnoredForOtherTargets(t *testing.T) {
	p := coordtransform.NewGeoPoint(116.404, 39.915)
	o := options{from: coordtransform.WGS84, to: coordtransform.BD09, exact: true}
	assert.Equal(t, coordtransform.WGS84ToBD09(p), convertPoint(p, o))
}

func TestRunOutputPathFailure(t *testing.T) {
	dir := t.TempDir()
	var errOut bytes.Buffer
	code := run([]string{"-out", filepath.Join(dir, "missing", "out.csv")}, strings.NewReader("116.404,39.915\n"), &bytes.Buffer{}, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "batch_write_error")
}

func TestParseFlagsErrors(t *testing.T) {
	var errOut bytes.Buffer
	_, err := parseFlags([]string{"-from", "utm"}, &errOut)
	assert.ErrorIs(t, err, coordtransform.ErrUnknownSystem)
	_, err = parseFlags([]string{"-format", "xml"}, &errOut)
	assert.Error(t, err)
	o, err := parseFlags([]string{"-workers", "0"}, &errOut)
	require.NoError(t, err)
	assert.Equal(t, 1, o.workers)
	assert.Equal(t, 2, run([]string{"-to", "nope"}, strings.NewReader(""), &bytes.Buffer{}, &errOut))
}
