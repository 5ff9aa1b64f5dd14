// Command circuitdemo runs the dataflow circuit headlessly over generated
// terrain and a scatter of falling entities, printing windowed telemetry —
// the flag-driven demo/debug CLI shape the teacher uses for its preview and
// shader-debug commands (cmd/shaderdebug, cmd/potentialpreview), adapted
// here to drive the circuit instead of a renderer.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/pthm-cable/worldcore/circuit"
	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/hostecs"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/telemetry"
	"github.com/pthm-cable/worldcore/worldgen"
)

func main() {
	configPath := flag.String("config", "", "constants YAML file (empty = embedded defaults)")
	seed := flag.Int64("seed", 1, "world generation seed")
	entityCount := flag.Int("entities", 20, "number of entities to scatter")
	ticks := flag.Int("ticks", 500, "number of ticks to simulate")
	windowTicks := flag.Uint64("window-ticks", 60, "telemetry window length in ticks")
	outputDir := flag.String("output", "", "output directory for telemetry.csv and constants.yaml (empty = none)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg := config.Cfg()

	c := circuit.New(cfg)
	collector := telemetry.NewCollector(*windowTicks)
	sync := hostecs.New(c, collector)

	var out *telemetry.OutputManager
	if *outputDir != "" {
		var err error
		out, err = telemetry.NewOutputManager(*outputDir)
		if err != nil {
			log.Fatalf("creating output manager: %v", err)
		}
		defer out.Close()
		if err := out.WriteConfig(cfg); err != nil {
			slog.Error("writing constants", "error", err)
		}
	}

	world := worldgen.Generate(worldgen.DefaultParams(*seed))
	world.ScatterEntities(*entityCount, 1)

	for _, b := range world.Blocks {
		c.BlockIn.Insert(b)
	}
	for _, s := range world.Slopes {
		c.BlockSlopeIn.Insert(s)
	}

	byEntity := map[records.EntityID]int{}
	for i, p := range world.Positions {
		byEntity[p.Entity] = i
	}
	for i, p := range world.Positions {
		v := world.Velocities[i]
		id := sync.Spawn(hostecs.Position{X: p.X.Float(), Y: p.Y.Float(), Z: p.Z.Float()}, hostecs.Velocity{VX: v.VX.Float(), VY: v.VY.Float(), VZ: v.VZ.Float()})
		sync.SpawnHealth(id, 100, 100)
	}

	fmt.Printf("circuitdemo: simulating %d entities over %d ticks (seed=%d)\n", *entityCount, *ticks, *seed)

	for tick := 0; tick < *ticks; tick++ {
		sync.Run()
		if collector.ShouldFlush(uint64(tick)) {
			stats := collector.Flush(uint64(tick))
			stats.LogStats()
			if err := out.WriteTelemetry(stats); err != nil {
				slog.Error("writing telemetry", "error", err)
			}
		}
	}

	finalStats := collector.Flush(uint64(*ticks))
	finalStats.LogStats()
	if err := out.WriteTelemetry(finalStats); err != nil {
		slog.Error("writing final telemetry", "error", err)
	}

	fmt.Println("circuitdemo: done")
	os.Exit(0)
}
