// Command qec-bsc simulates decoding of the rotated planar G81 surface code:
// it sweeps error probabilities over code distances, aggregates JSONL
// records, and renders lattices.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/internal/log"
	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/errormodel"
	"github.com/Gurrzz/qec-bsc/pkg/qec/rotatedplanar"
	"github.com/Gurrzz/qec-bsc/pkg/sim"
	"github.com/Gurrzz/qec-bsc/pkg/sim/drawer"
	"github.com/Gurrzz/qec-bsc/pkg/sim/record"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger := log.Base()
		logger.Error().Err(err).Msg("qec-bsc failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("missing subcommand")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "run":
		return runSweep(ctx, args[1:])
	case "stats":
		return runStats(args[1:])
	case "draw":
		return runDraw(args[1:])
	default:
		usage()
		return errors.Errorf("unknown subcommand %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: qec-bsc <command> [flags]

commands:
  run    sweep error probabilities over code distances
  stats  merge a JSONL record file and print failure-rate series
  draw   render a lattice as SVG`)
}

func runSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	distances := fs.String("distances", "3,5", "comma-separated odd code distances")
	pmin := fs.Float64("pmin", 0.05, "lowest error probability")
	pmax := fs.Float64("pmax", 0.5, "highest error probability")
	psteps := fs.Int("psteps", 10, "number of probabilities between pmin and pmax")
	bias := fs.Float64("bias", 0, "bias eta of the biased-depolarizing model; 0 selects plain depolarizing")
	biases := fs.String("biases", "", "comma-separated bias etas to sweep; overrides -bias")
	axis := fs.String("axis", "Z", "high-rate axis of the biased model: X, Y or Z")
	chi := fs.Int("chi", 8, "MPS bond dimension; 0 contracts exactly")
	mode := fs.String("mode", "c", "contraction mode: c (columns), r (rows) or a (average)")
	maxRuns := fs.Int("maxruns", 100, "runs per job")
	seed := fs.Int64("seed", 0, "base rng seed; 0 draws from the clock")
	workers := fs.Int("workers", 1, "concurrent jobs")
	out := fs.String("out", "", "JSONL output file, appended atomically")
	draw := fs.String("draw", "", "DOT file for the sweep topology")
	logLevel := fs.String("loglevel", "", "log level override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log.Configure(log.Config{Level: *logLevel})

	var codes []qec.Code
	for _, field := range strings.Split(*distances, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return errors.Wrapf(err, "distance %q", field)
		}
		code, err := rotatedplanar.New(d)
		if err != nil {
			return err
		}
		codes = append(codes, code)
	}

	if *mode == "" || *axis == "" {
		return errors.New("mode and axis must not be empty")
	}

	var models []qec.ErrorModel
	switch {
	case *biases != "":
		for _, field := range strings.Split(*biases, ",") {
			eta, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return errors.Wrapf(err, "bias %q", field)
			}
			biased, err := errormodel.NewBiasedDepolarizing(eta, errormodel.Axis((*axis)[0]))
			if err != nil {
				return err
			}
			models = append(models, biased)
		}
	case *bias > 0:
		biased, err := errormodel.NewBiasedDepolarizing(*bias, errormodel.Axis((*axis)[0]))
		if err != nil {
			return err
		}
		models = append(models, biased)
	default:
		models = append(models, errormodel.NewDepolarizing())
	}

	if *psteps < 1 {
		return errors.New("psteps must be at least 1")
	}
	ps := make([]float64, 0, *psteps)
	for i := 0; i < *psteps; i++ {
		p := *pmin
		if *psteps > 1 {
			p += (*pmax - *pmin) * float64(i) / float64(*psteps-1)
		}
		ps = append(ps, p)
	}

	jobs, err := sim.Jobs(codes, models, ps, *maxRuns, *seed, func(model qec.ErrorModel, p float64) (qec.Decoder, error) {
		return rotatedplanar.NewRMPSDecoder(
			rotatedplanar.WithChi(*chi),
			rotatedplanar.WithMode(rotatedplanar.Mode((*mode)[0])),
			rotatedplanar.WithErrorModel(model, p),
		)
	})
	if err != nil {
		return err
	}

	sweep := &sim.Sweep{
		Jobs:     jobs,
		Workers:  *workers,
		OutFile:  *out,
		DrawFile: *draw,
	}
	records, err := sweep.Run(ctx)
	if err != nil {
		return err
	}

	if *out == "" {
		data, err := record.Marshal(records)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	}

	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	in := fs.String("in", "", "JSONL record file")
	xAxis := fs.String("x", "p", "series x axis: p (error probability) or bias")
	asJSON := fs.Bool("json", false, "print series as JSON instead of text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log.Configure(log.Config{})
	if *in == "" {
		return errors.New("stats requires -in")
	}

	records, err := record.Read(*in)
	if err != nil {
		return err
	}
	var series map[string][]record.Point
	switch *xAxis {
	case "p":
		series, err = record.GroupXY(records)
	case "bias":
		series, err = record.GroupXYBias(records)
	default:
		return errors.Errorf("unknown x axis %q", *xAxis)
	}
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(series)
	}

	codes := make([]string, 0, len(series))
	for code := range series {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Printf("%s\n", code)
		for _, point := range series[code] {
			fmt.Printf("  %s=%-8.4g failure_rate=%.6g\n", *xAxis, point.X, point.Y)
		}
	}

	return nil
}

func runDraw(args []string) error {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	distance := fs.Int("distance", 5, "code distance")
	out := fs.String("out", "lattice.svg", "SVG output file")
	p := fs.Float64("p", 0, "sample an error at this probability and overlay it")
	seed := fs.Int64("seed", 1, "rng seed for the sampled error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log.Configure(log.Config{})

	code, err := rotatedplanar.New(*distance)
	if err != nil {
		return err
	}

	var opts []drawer.LatticeOption
	if *p > 0 {
		model := errormodel.NewDepolarizing()
		errOp, err := model.Generate(code, *p, rand.New(rand.NewSource(*seed)))
		if err != nil {
			return err
		}
		syndrome, err := qec.Syndrome(code, errOp)
		if err != nil {
			return err
		}
		opts = append(opts, drawer.WithPauli(errOp), drawer.WithSyndrome(syndrome))
	}

	if err := drawer.SaveLatticeSVG(*out, code, opts...); err != nil {
		return err
	}
	logger := log.WithComponent("draw")
	logger.Info().Str("file", *out).Int("distance", *distance).Msg("lattice written")

	return nil
}
