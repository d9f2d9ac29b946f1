package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Point is one position on an experiment's sweep axis. Key names the
// result artifact; Args is the argv fragment specific to this point.
type Point struct {
	Key  string
	Args []string
}

// Axis enumerates the sweep points of one experiment in a fixed,
// deterministic order.
type Axis interface {
	Points(topologyDir string) ([]Point, error)
}

// TopologyAxis sweeps over every topology file in the zoo, minus the
// per-experiment exclusions. Exclusions are applied here, before any
// invocation is constructed.
type TopologyAxis struct {
	Exclude []string
}

func (a TopologyAxis) Points(topologyDir string) ([]Point, error) {
	entries, err := os.ReadDir(topologyDir)
	if err != nil {
		return nil, fmt.Errorf("listing topology dir %s: %v", topologyDir, err)
	}

	excluded := make(map[string]bool, len(a.Exclude))
	for _, name := range a.Exclude {
		excluded[name] = true
	}

	var points []Point
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".graphml") || excluded[name] {
			continue
		}
		points = append(points, Point{
			Key:  strings.TrimSuffix(name, ".graphml"),
			Args: []string{"--topology", filepath.Join(topologyDir, name)},
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Key < points[j].Key })
	return points, nil
}

// Band owns all axis values strictly below its threshold; the last
// band of an axis must have Below == 0 and catches everything else.
// This is how the catalog encodes "exhaustive search is affordable
// only at small problem sizes": small values get the broad-search
// argument template, large ones the narrow template.
type Band struct {
	Below int
	Args  []string
}

// IntegerAxis sweeps an explicit ascending value list. Each point gets
// the argument template of the band owning its value, plus Flag v.
type IntegerAxis struct {
	KeyPrefix string // artifact key is KeyPrefix + value, e.g. "n12"
	Flag      string
	Values    []int
	Bands     []Band
}

func (a IntegerAxis) Points(string) ([]Point, error) {
	points := make([]Point, 0, len(a.Values))
	for _, v := range a.Values {
		band, err := a.band(v)
		if err != nil {
			return nil, err
		}
		args := append([]string{}, band.Args...)
		args = append(args, a.Flag, strconv.Itoa(v))
		points = append(points, Point{Key: a.KeyPrefix + strconv.Itoa(v), Args: args})
	}
	return points, nil
}

func (a IntegerAxis) band(v int) (Band, error) {
	for _, b := range a.Bands {
		if b.Below == 0 || v < b.Below {
			return b, nil
		}
	}
	return Band{}, fmt.Errorf("no band owns value %d", v)
}

// GridAxis is the nested two-level sweep: every (r, v) pair of the
// outer times inner ranges, enumerated row-major (all v for r=RMin
// first). Both bounds are inclusive.
type GridAxis struct {
	RMin, RMax int
	VMin, VMax int
}

func (a GridAxis) Points(string) ([]Point, error) {
	var points []Point
	for r := a.RMin; r <= a.RMax; r++ {
		for v := a.VMin; v <= a.VMax; v++ {
			points = append(points, Point{
				Key: fmt.Sprintf("r%d_v%d", r, v),
				Args: []string{
					"--rank", strconv.Itoa(r),
					"--variant", strconv.Itoa(v),
				},
			})
		}
	}
	return points, nil
}
