// Command gmtfreq computes the frequency-response matrices of the
// GMT FEM over a requested set of input/output channels and
// evaluation frequencies, and writes the result to a JSON or PNG
// file selected by the output filename's extension.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gmto/gmt-fem-frequency-response/internal/cmat"
	"github.com/gmto/gmt-fem-frequency-response/internal/config"
	"github.com/gmto/gmt-fem-frequency-response/internal/fem"
	"github.com/gmto/gmt-fem-frequency-response/internal/frx"
	"github.com/gmto/gmt-fem-frequency-response/internal/lom"
	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
	"github.com/gmto/gmt-fem-frequency-response/internal/result"
	"github.com/gmto/gmt-fem-frequency-response/internal/structural"
)

// channelList collects a repeatable --inputs/--outputs flag.
type channelList []string

func (c *channelList) String() string     { return strings.Join(*c, ",") }
func (c *channelList) Set(v string) error { *c = append(*c, v); return nil }

func main() {
	var (
		inputs, outputs channelList
		damping         = flag.Float64("z", 0.02, "structural damping coefficient")
		fMin            = flag.Float64("eigen-frequency-min", 0, "lower eigenfrequency bound in Hz (0 = unbounded)")
		fMax            = flag.Float64("eigen-frequency-max", 0, "upper eigenfrequency bound in Hz (0 = unbounded)")
		filename        = flag.String("f", "gmt_frequency_response.json", "output file path")
		configPath      = flag.String("config", "", "optional JSON5 run-configuration file")
		lomPath         = flag.String("lom", "", "path to the LOM sensitivity blob (required for optical outputs)")
		mismatch        = flag.Bool("static-gain-mismatch", false, "enable the static-gain-mismatch correction")
		mismatchDelay   = flag.Float64("mismatch-delay", 0, "static-gain-mismatch phase delay in seconds (0 = none)")
	)
	flag.Var(&inputs, "inputs", "input channel name (repeatable)")
	flag.Var(&outputs, "outputs", "output channel name (repeatable; also accepts tip-tilt, segment_tip-tilt, segment_piston)")

	freqSpec := flag.String("freq", "", `frequency specification: "single:<Hz>", "log-space:<lower>,<upper>,<n>", "lin-space:<lower>,<upper>,<n>", or "set:<v1>,<v2>,..."`)

	flag.Parse()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config %s: %v", *configPath, err)
		}
		applyConfigDefaults(cfg, &inputs, &outputs, damping, fMin, fMax, filename, mismatch, mismatchDelay)
	}

	if len(inputs) == 0 || len(outputs) == 0 {
		log.Fatalf("at least one --inputs and one --outputs value is required")
	}

	freqs, err := parseFrequencies(*freqSpec)
	if err != nil {
		log.Fatalf("parsing --freq: %v", err)
	}

	raw, repoName, err := fem.LoadFromEnv()
	if err != nil {
		log.Fatalf("loading FEM model: %v", err)
	}
	fmt.Printf("loaded FEM model %q: %d modes, %d inputs, %d outputs\n",
		repoName, raw.NModes(), raw.NInputs(), raw.NOutputs())

	builder := structural.NewBuilder(toChannels(inputs), toChannels(outputs)).WithDamping(*damping)
	if *fMin != 0 || *fMax != 0 {
		builder = builder.WithEigenFrequencyWindow(zeroToNil(*fMin), zeroToNil(*fMax))
	}
	if *mismatch {
		builder = builder.WithStaticGainMismatch(zeroToNil(*mismatchDelay))
	}
	if *lomPath != "" {
		builder = builder.WithLOMLoader(lom.FileLoader{Path: *lomPath})
	}

	model, err := builder.Build(raw)
	if err != nil {
		log.Fatalf("building structural model: %v", err)
	}
	fmt.Printf("built structural model: %d modes retained, %d x %d response\n",
		model.NModes(), model.NOutputs(), model.NInputs())

	start := time.Now()
	points, err := frx.Sweep(freqs, func() func(complex128) *cmat.Dense {
		ws := model.NewWorkspace()
		return func(jw complex128) *cmat.Dense {
			return model.HWith(jw, ws)
		}
	}, func(done, total int) {
		if done%100 == 0 || done == total {
			fmt.Printf("\rsweeping: %d/%d", done, total)
		}
	})
	if err != nil {
		log.Fatalf("sweeping frequencies: %v", err)
	}
	fmt.Printf("\nswept %d frequencies in %s\n", len(points), time.Since(start))

	vec := &result.FrequencyResponseVec{
		FEM:                     repoName,
		Inputs:                  toChannels(inputs),
		Outputs:                 toChannels(outputs),
		ModalDampingCoefficient: *damping,
		EigenFrequencyRangeHz:   eigenFrequencyRange(model),
		Points:                  make([]result.Point, len(points)),
	}
	for i, p := range points {
		vec.Points[i] = result.Point{FrequencyHz: p.FrequencyHz, H: p.Value}
	}

	reg := result.NewRegistry()
	if err := reg.Export(*filename, vec); err != nil {
		log.Fatalf("writing %s: %v", *filename, err)
	}
	fmt.Printf("wrote %s\n", *filename)
}

func eigenFrequencyRange(model *structural.Model) [2]float64 {
	hz := model.EigenFrequenciesHz()
	if len(hz) == 0 {
		return [2]float64{}
	}
	lo, hi := hz[0], hz[0]
	for _, f := range hz {
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	return [2]float64{lo, hi}
}

func toChannels(names []string) []registry.Channel {
	out := make([]registry.Channel, len(names))
	for i, n := range names {
		out[i] = registry.Channel(n)
	}
	return out
}

func zeroToNil(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func parseFrequencies(spec string) (frx.Frequencies, error) {
	kind, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return frx.Frequencies{}, fmt.Errorf("--freq must be kind:args, got %q", spec)
	}
	switch kind {
	case "single":
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return frx.Frequencies{}, err
		}
		return frx.Single(v), nil
	case "log-space", "lin-space":
		parts := strings.Split(rest, ",")
		if len(parts) != 3 {
			return frx.Frequencies{}, fmt.Errorf("%s requires lower,upper,n", kind)
		}
		lower, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return frx.Frequencies{}, err
		}
		upper, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return frx.Frequencies{}, err
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return frx.Frequencies{}, err
		}
		if kind == "log-space" {
			return frx.LogSpace(lower, upper, n), nil
		}
		return frx.LinSpace(lower, upper, n), nil
	case "set":
		parts := strings.Split(rest, ",")
		values := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return frx.Frequencies{}, err
			}
			values[i] = v
		}
		return frx.Set(values), nil
	default:
		return frx.Frequencies{}, fmt.Errorf("unknown frequency kind %q", kind)
	}
}

func applyConfigDefaults(cfg *config.RunConfig, inputs, outputs *channelList, damping, fMin, fMax *float64, filename *string, mismatch *bool, mismatchDelay *float64) {
	if len(*inputs) == 0 {
		*inputs = cfg.Inputs
	}
	if len(*outputs) == 0 {
		*outputs = cfg.Outputs
	}
	if cfg.StructuralDamping != nil && *damping == 0.02 {
		*damping = *cfg.StructuralDamping
	}
	if cfg.EigenFrequencyMin != nil && *fMin == 0 {
		*fMin = *cfg.EigenFrequencyMin
	}
	if cfg.EigenFrequencyMax != nil && *fMax == 0 {
		*fMax = *cfg.EigenFrequencyMax
	}
	if cfg.Filename != nil && *filename == "gmt_frequency_response.json" {
		*filename = *cfg.Filename
	}
	if cfg.StaticGainMismatch && !*mismatch {
		*mismatch = true
		if cfg.MismatchDelay != nil && *mismatchDelay == 0 {
			*mismatchDelay = *cfg.MismatchDelay
		}
	}
}
