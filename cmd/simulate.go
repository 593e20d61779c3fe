package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yavin-ai/yavin/internal/progress"
	"github.com/yavin-ai/yavin/internal/render"
	"github.com/yavin-ai/yavin/internal/sim"
	"github.com/yavin-ai/yavin/internal/viewer"
)

var (
	simSteps      int
	simSeed       int64
	simRate       float64
	simX          float64
	simEpochs     int
	simText       string
	simDataset    string
	simActivation string
	simOut        string
	simWidth      int
	simHeight     int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <kind>",
	Short: "Run a demo headless and print its final state",
	Long: `Runs one of the course simulations without a browser, stepping it until it
finishes or --steps is reached, then prints the final state as JSON.
With --out the last frame is also written as a PNG.

Kinds: ` + kindList(),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := sim.Kind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown demo kind %q (want one of %s)", args[0], kindList())
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		settings := viewerSettings(cfg)
		settings.GradientInterval = -1
		settings.BoundaryInterval = -1
		settings.NetworkInterval = -1

		reg := viewer.NewRegistry(nil, settings)
		defer reg.Close()

		inst, err := reg.Create(kind, simSeed)
		if err != nil {
			return err
		}
		if p, ok := simulateParams(cmd); ok {
			if err := inst.Apply(p); err != nil {
				return err
			}
		}

		reporter := progress.NewReporter(fmt.Sprintf("Simulating %s", kind))
		reporter.Start(simSteps)
		step := 0
		for step < simSteps {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			done, err := inst.Step()
			if err != nil {
				return err
			}
			step++
			reporter.Update(step, fmt.Sprintf("Simulating %s", kind))
			if verbose {
				log.Printf("simulate: step %d: %s", step, compactState(inst))
			}
			if done {
				break
			}
		}
		reporter.Finish()
		fmt.Fprintf(os.Stderr, "%s finished after %d steps\n", kind, step)

		if simOut != "" {
			if err := writeFrame(inst, simOut, string(cfg.Theme)); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Frame written to %s\n", simOut)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inst.Summary())
	},
}

// simulateParams collects the tunables given on the command line.
func simulateParams(cmd *cobra.Command) (viewer.Params, bool) {
	var p viewer.Params
	flags := cmd.Flags()
	if flags.Changed("lr") {
		p.LearningRate = &simRate
	}
	if flags.Changed("x") {
		p.X = &simX
	}
	if flags.Changed("epochs") {
		p.Epochs = &simEpochs
	}
	if flags.Changed("text") {
		p.Tokens = &simText
	}
	if flags.Changed("dataset") {
		p.Dataset = &simDataset
	}
	if flags.Changed("activation") {
		p.Activation = &simActivation
	}
	return p, p != (viewer.Params{})
}

func writeFrame(inst *viewer.Instance, path, theme string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	frame := inst.Render(simWidth, simHeight, render.ThemeByName(theme))
	if err := frame.EncodePNG(f); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return f.Close()
}

func compactState(inst *viewer.Instance) string {
	data, err := json.Marshal(inst.Demo().Snapshot())
	if err != nil {
		return err.Error()
	}
	const maxLen = 160
	if len(data) > maxLen {
		return string(data[:maxLen]) + "..."
	}
	return string(data)
}

func kindList() string {
	names := make([]string, len(sim.Kinds))
	for i, k := range sim.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simSteps, "steps", 100, "maximum number of steps")
	f.Int64Var(&simSeed, "seed", 0, "random seed (0 picks one)")
	f.Float64Var(&simRate, "lr", 0, "learning rate")
	f.Float64Var(&simX, "x", 0, "gradient descent starting point")
	f.IntVar(&simEpochs, "epochs", 0, "training epochs (boundary, network)")
	f.StringVar(&simText, "text", "", "sentence for the attention demo")
	f.StringVar(&simDataset, "dataset", "", "network dataset")
	f.StringVar(&simActivation, "activation", "", "network activation")
	f.StringVar(&simOut, "out", "", "write the final frame to this PNG file")
	f.IntVar(&simWidth, "width", 800, "frame width in pixels")
	f.IntVar(&simHeight, "height", 500, "frame height in pixels")
	rootCmd.AddCommand(simulateCmd)
}
