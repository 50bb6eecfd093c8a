package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/skern/trotter/internal/config"
	"github.com/skern/trotter/internal/experiment"
	"github.com/skern/trotter/internal/storage"
	"github.com/skern/trotter/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	live       bool
	procs      string
	iterations int
	imagTime   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trotter",
		Short: "Trotter-Suzuki integrator for the Schrodinger and Gross-Pitaevskii equations",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "runs", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an evolution from a preset or config file",
		RunE:  runEvolution,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().BoolVar(&live, "live", false, "live monitor")
	runCmd.Flags().StringVar(&procs, "procs", "", "process grid, e.g. 2x2")
	runCmd.Flags().IntVar(&iterations, "iterations", 0, "override iteration count")
	runCmd.Flags().BoolVar(&imagTime, "imag-time", false, "force imaginary-time evolution")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	rootCmd.AddCommand(runCmd, presetsCmd, listCmd, plotCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (see `trotter presets`)", preset)
		}
	default:
		return nil, fmt.Errorf("either --config or --preset is required")
	}

	if procs != "" {
		px, py, err := parseProcs(procs)
		if err != nil {
			return nil, err
		}
		cfg.Procs.PX, cfg.Procs.PY = px, py
	}
	if iterations > 0 {
		cfg.Time.Iterations = iterations
	}
	if imagTime {
		cfg.Time.ImagTime = true
	}
	cfg.Output.Dir = dataDir
	return cfg, nil
}

func parseProcs(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad process grid %q, want PXxPY", s)
	}
	px, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	py, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return px, py, nil
}

func runEvolution(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}

	if live {
		return runWithMonitor(cfg, store)
	}

	result, err := experiment.Run(cfg, store, func(p experiment.Progress) {
		fmt.Printf("iter %8d  t=%.4f  norm2=%.10f  E=%.8f\n", p.Iter, p.Time, p.Norm2, p.Total)
	})
	if err != nil {
		return err
	}
	printSummary(result)
	return nil
}

func runWithMonitor(cfg *config.Config, store *storage.Store) error {
	prog := tui.NewProgram(cfg.Preset, cfg.Time.Iterations)

	var result *experiment.Result
	go func() {
		var err error
		result, err = experiment.Run(cfg, store, func(p experiment.Progress) {
			prog.Send(tui.ProgressMsg(p))
		})
		prog.Send(tui.DoneMsg{Err: err})
	}()

	if _, err := prog.Run(); err != nil {
		return err
	}
	if result != nil {
		printSummary(result)
	}
	return nil
}

func printSummary(r *experiment.Result) {
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run dir\t%s\n", r.RunDir)
	fmt.Fprintf(w, "elapsed\t%s\n", r.Elapsed.Round(1e6))
	fmt.Fprintf(w, "final time\t%.6f\n", r.Final.Time)
	fmt.Fprintf(w, "squared norm\t%.12f\n", r.Final.Norm2)
	fmt.Fprintf(w, "total energy\t%.10f\n", r.Final.Total)
	fmt.Fprintf(w, "kinetic energy\t%.10f\n", r.Final.Kinetic)
	fmt.Fprintf(w, "potential energy\t%.10f\n", r.Final.Potential)
	w.Flush()

	if len(r.Samples) > 1 {
		series := make([]float64, len(r.Samples))
		for i, s := range r.Samples {
			series[i] = s.Total
		}
		fmt.Println("\ntotal energy:")
		fmt.Println(asciigraph.Plot(series, asciigraph.Height(10), asciigraph.Width(70)))
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	sort.Strings(names)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIM\tGRID\tITERS\tMODE\tCOMPONENTS")
	for _, name := range names {
		c := config.GetPreset(name)
		mode := "real"
		if c.Time.ImagTime {
			mode = "imag"
		}
		comps := 1
		if c.SecondComponent != nil {
			comps = 2
		}
		grid := fmt.Sprintf("%d", c.Grid.NX)
		if c.Grid.Dim == 2 {
			grid = fmt.Sprintf("%dx%d", c.Grid.NX, c.Grid.NY)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%d\n", name, c.Grid.Dim, grid, c.Time.Iterations, mode, comps)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGRID\tITERS\tMODE\tKERNEL\tPROCS")
	for _, m := range runs {
		mode := "real"
		if m.ImagTime {
			mode = "imag"
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\t%s\t%dx%d\n",
			m.ID, m.GridNX, m.GridNY, m.Iterations, mode, m.Kernel, m.ProcsX, m.ProcsY)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	hist, err := storage.OpenHistory(filepath.Join(dataDir, args[0], "history.db"))
	if err != nil {
		return err
	}
	defer hist.Close()

	samples, err := hist.Samples()
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Println("no samples recorded")
		return nil
	}
	series := make([]float64, len(samples))
	for i, s := range samples {
		series[i] = s.Total
	}
	fmt.Printf("total energy over %d samples:\n", len(samples))
	fmt.Println(asciigraph.Plot(series, asciigraph.Height(12), asciigraph.Width(70)))
	return nil
}
