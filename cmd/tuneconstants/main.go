package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/worldcore/config"
)

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "base constants YAML file (empty = embedded defaults)")
	maxTicks := flag.Int("max-ticks", 2000, "ticks per simulated run")
	seeds := flag.Int("seeds", 4, "seeds averaged per evaluation")
	maxEvals := flag.Int("max-evals", 100, "maximum CMA-ES evaluations")
	outputDir := flag.String("output", "", "output directory for results (required)")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("-output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 1)
	}
	evaluator := NewFitnessEvaluator(params, *maxTicks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{FuncEvaluations: *maxEvals, Concurrent: 0}
	popSize := 4 + int(3.0*float64(dim)/2.0)
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("creating log file: %v", err)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "mean_fall_damage"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	start := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		raw := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = append([]float64(nil), raw...)
		}

		row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.3f", evaluator.LastMeanDamage())}
		for _, v := range raw {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		fmt.Printf("eval %d/%d fitness=%.3f mean_damage=%.2f elapsed=%s\n",
			evalCount, *maxEvals, fitness, evaluator.LastMeanDamage(), formatDuration(time.Since(start)))
		return fitness
	}

	fmt.Printf("tuning %d constants over %d evals, %d seeds, %d ticks/run\n", dim, *maxEvals, *seeds, *maxTicks)
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil {
		bestParams = params.Denormalize(result.X)
	}

	fmt.Printf("\nbest fitness: %.3f\n", bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("reloading base config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	outPath := filepath.Join(*outputDir, "tuned_constants.yaml")
	if err := bestCfg.WriteYAML(outPath); err != nil {
		log.Printf("writing tuned constants: %v", err)
	} else {
		fmt.Printf("tuned constants saved to %s\n", outPath)
	}
}
