// Command replay reads the compressed tick journal and either summarizes
// it or re-simulates the recorded positions against the terrain of a given
// seed, flagging ticks where the journal puts the player below ground.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/world"
)

func main() {
	var (
		dataDir  = flag.String("data", "./data", "runtime data directory")
		seed     = flag.Int64("seed", 0, "verify positions against this terrain seed (0: summary only)")
		fromTick = flag.Uint64("from_tick", 0, "start at tick (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	files, err := listJournalFiles(filepath.Join(*dataDir, "ticks"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "list journal:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal files under", *dataDir)
		os.Exit(2)
	}

	var field terrain.Field
	if *seed != 0 {
		cfg := tuning.Default()
		field = terrain.NewProcedural(*seed, cfg.Terrain.TargetMaxHeight)
	}

	var (
		total     int
		grounded  int
		firstTick uint64
		lastTick  uint64
		breaches  int
	)
	for _, path := range files {
		err := readJournal(path, func(rec world.TickRecord) {
			if *fromTick != 0 && rec.Tick < *fromTick {
				return
			}
			if *toTick != 0 && rec.Tick > *toTick {
				return
			}
			if firstTick == 0 {
				firstTick = rec.Tick
			}
			lastTick = rec.Tick
			total++
			if rec.OnGround {
				grounded++
			}
			if field != nil {
				ground := field.ElevationAt(float64(rec.Position[0]), float64(rec.Position[2]))
				if rec.Position[1] < ground-1.0 {
					breaches++
					fmt.Printf("tick %d: recorded y=%.2f below terrain %.2f at (%.1f, %.1f)\n",
						rec.Tick, rec.Position[1], ground, rec.Position[0], rec.Position[2])
				}
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("journal: %d ticks [%d..%d], %d grounded\n", total, firstTick, lastTick, grounded)
	if field != nil {
		fmt.Printf("terrain check: %d below-ground breaches\n", breaches)
		if breaches > 0 {
			os.Exit(1)
		}
	}
}

func listJournalFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "ticks-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func readJournal(path string, fn func(world.TickRecord)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var rec world.TickRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return fmt.Errorf("line %q: %w", sc.Text(), err)
		}
		fn(rec)
	}
	return sc.Err()
}
