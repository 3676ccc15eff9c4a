package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/term"

	"github.com/user-none/emsid/cli"
	"github.com/user-none/emsid/emu"
	"github.com/user-none/emsid/script"
	"github.com/user-none/emsid/wavout"
)

func main() {
	tablesDir := flag.String("tables", "tables", "directory holding the waveform and filter tables")
	dumpPath := flag.String("dump", "", "register dump (.sidreg) to play")
	scriptPath := flag.String("script", "", "Lua script that builds the song")
	modelFlag := flag.String("model", "6581", "chip model: 6581 or 8580 (overrides a dump)")
	regionFlag := flag.String("region", "pal", "region: pal or ntsc (overrides a dump)")
	chips := flag.Int("chips", 1, "chip count for scripts: 1 or 2")
	wavPath := flag.String("wav", "", "render to this WAV file instead of playing")
	seconds := flag.Float64("seconds", 0, "WAV length in seconds (0 = song length plus release)")
	saveDump := flag.String("save-dump", "", "write the loaded song as a register dump")
	statePath := flag.String("state", "", "resume from and save playback to this state file")
	flag.Parse()

	if (*dumpPath == "") == (*scriptPath == "") {
		log.Fatal("Exactly one song source is required. Usage: emsid -dump <file.sidreg> | -script <file.lua>")
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	model, err := emu.ParseModel(*modelFlag)
	if err != nil {
		log.Fatal(err)
	}
	region, err := emu.ParseRegion(*regionFlag)
	if err != nil {
		log.Fatal(err)
	}

	var song *emu.Song
	if *scriptPath != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		song, err = script.LoadFile(ctx, *scriptPath, script.Options{
			Chips:  *chips,
			Region: region,
			Model:  model,
		})
		stop()
		if err != nil {
			log.Fatalf("Failed to run script: %v", err)
		}
	} else {
		data, err := os.ReadFile(*dumpPath)
		if err != nil {
			log.Fatalf("Failed to load dump: %v", err)
		}
		song, err = emu.ParseDump(data)
		if err != nil {
			log.Fatalf("Failed to load dump: %v", err)
		}
		if set["model"] {
			for i := range song.Models {
				song.Models[i] = model
			}
		}
		if set["region"] {
			song.Region = region
		}
	}

	if *saveDump != "" {
		data, err := song.MarshalDump()
		if err != nil {
			log.Fatalf("Failed to encode dump: %v", err)
		}
		if err := os.WriteFile(*saveDump, data, 0644); err != nil {
			log.Fatalf("Failed to write dump: %v", err)
		}
	}

	tables, err := emu.LoadTablesDir(*tablesDir)
	if err != nil {
		if errors.Is(err, emu.ErrTableMissing) {
			log.Fatalf("Lookup tables not found in %s: %v", *tablesDir, err)
		}
		log.Fatalf("Failed to load lookup tables: %v", err)
	}

	e, err := emu.NewEmulator(song, tables)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}

	if *statePath != "" {
		loadState(e, *statePath)
	}

	if *wavPath != "" {
		renderWAV(e, song, *wavPath, *seconds)
	} else {
		play(e, song, songTitle(*dumpPath, *scriptPath))
	}

	if *statePath != "" {
		data, err := e.Serialize()
		if err != nil {
			log.Printf("Warning: failed to save state: %v", err)
		} else if err := os.WriteFile(*statePath, data, 0644); err != nil {
			log.Printf("Warning: failed to save state: %v", err)
		}
	}
}

// loadState restores a previous session. A missing or foreign state file
// starts the song from the beginning.
func loadState(e *emu.Emulator, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := e.Deserialize(data); err != nil {
		log.Printf("Ignoring state %s: %v", path, err)
	}
}

func renderWAV(e *emu.Emulator, song *emu.Song, path string, seconds float64) {
	frames := wavout.Frames(e, song, seconds)

	var progress func(done, total int)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		last := -1
		progress = func(done, total int) {
			pct := done * 100 / total
			if pct != last {
				fmt.Printf("\rRendering %s: %3d%%", filepath.Base(path), pct)
				last = pct
			}
			if done == total {
				fmt.Println()
			}
		}
	}

	if err := wavout.WriteFile(path, e, frames, progress); err != nil {
		log.Fatalf("Failed to render WAV: %v", err)
	}
}

func play(e *emu.Emulator, song *emu.Song, title string) {
	h := cli.ScopeHeight(e.Chips())
	ebiten.SetWindowSize(cli.ScopeWidth*2, h*2)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(cli.ScopeWidth/2, h/2, -1, -1)
	ebiten.SetTPS(60)

	runner := cli.NewRunner(e, song.Duration())
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}

func songTitle(paths ...string) string {
	for _, p := range paths {
		if p != "" {
			return "emsid - " + strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}
	}
	return "emsid"
}
