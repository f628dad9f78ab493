package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/boxsim/internal/analysis"
	"github.com/san-kum/boxsim/internal/automation"
	"github.com/san-kum/boxsim/internal/config"
	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/experiment"
	"github.com/san-kum/boxsim/internal/export"
	"github.com/san-kum/boxsim/internal/optim"
	"github.com/san-kum/boxsim/internal/sim"
	"github.com/san-kum/boxsim/internal/storage"
	"github.com/san-kum/boxsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	integrator string
	count      int
	gravity    float64
	elasticity float64
	fps        float64
	frames     int
	seed       uint64
	broadPhase bool
	denseOut   bool
	particle   int
	frameIdx   int
	outFile    string
	svgSize    int
	lyapunov   bool
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
	tuneAxes   []string
	tuneMetric string
	theme      string
)

// plot defaults to several particles, so it keeps its own index.
var plotParticle int

// main registers the boxsim commands. Without a subcommand it opens the
// interactive preset picker.
func main() {
	rootCmd := &cobra.Command{
		Use:          "boxsim",
		Short:        "particles in a box",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			viz.SetTheme(theme)
			return viz.RunInteractive(launchModel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".boxsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "neon", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run [name]",
		Short: "run a simulation and store its frames",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate a simulation in the terminal",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot particle heights of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotParticle, "particle", -1, "particle index (-1 plots the first six)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "bounce frequency, apexes and phase portrait of a particle",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	analyzeCmd.Flags().BoolVar(&lyapunov, "lyapunov", false, "estimate the largest Lyapunov exponent (reruns the simulation)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep elasticity and plot rebound heights of particle 0",
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 1, "first elasticity")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 20, "last elasticity")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 20, "number of elasticity values")
	sweepCmd.Flags().IntVar(&particle, "particle", 0, "particle index")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search parameters for the smallest metric value",
		RunE:  runTune,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneAxes, "axis", []string{"max_step=0.01,0.005,0.002"}, "searched parameter as name=v1,v2 (repeatable; names: "+strings.Join(config.SettableParams(), ", ")+")")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy_drift", "metric to minimize")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run and store every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	exportCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export particle paths, or one frame, as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame index (-1 draws the full paths)")
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default <run_id>.svg)")
	exportCmd.Flags().IntVar(&svgSize, "size", 600, "box size in pixels")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run frames as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets and integrators",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, sweepCmd, tuneCmd, batchCmd, exportCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (.yaml or .ini)")
	f.StringVar(&preset, "preset", "default", "preset name")
	f.StringVar(&integrator, "integrator", "dopri5", "integrator")
	f.IntVar(&count, "count", config.DefaultCount, "number of random particles")
	f.Float64Var(&gravity, "gravity", config.DefaultGravity, "gravitational acceleration")
	f.Float64Var(&elasticity, "elasticity", config.DefaultElasticity, "penalty stiffness")
	f.Float64Var(&fps, "fps", config.DefaultFPS, "frames per second of simulated time")
	f.IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
	f.Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	f.BoolVar(&broadPhase, "broad-phase", false, "use a k-d tree for pair search")
	f.BoolVar(&denseOut, "dense-output", false, "interpolate frames from the solver's continuous extension (dopri5)")
}

// loadConfig resolves the preset, then the config file, then any flag
// given explicitly on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if configFile != "" {
		var err error
		if strings.EqualFold(filepath.Ext(configFile), ".ini") {
			cfg, err = config.LoadINI(configFile)
		} else {
			cfg, err = config.Load(configFile)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator.Name = integrator
	}
	if flags.Changed("count") {
		cfg.Particles.Count = count
		cfg.Bodies = nil
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("elasticity") {
		cfg.Elasticity = elasticity
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("broad-phase") {
		cfg.BroadPhase = broadPhase
	}
	if flags.Changed("dense-output") {
		cfg.Integrator.DenseOutput = denseOut
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := preset
	if len(args) > 0 {
		name = args[0]
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s: %d particles, %d frames at %g fps...\n", name, len(exp.Params().Particles), cfg.Frames, cfg.FPS)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	runID, err := st.Save(name, cfg, exp.Params().Particles, result, runErr)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", len(result.States))
	if stats := result.Stats; stats != nil {
		fmt.Printf("solver: %d evaluations, %d accepted, %d rejected steps\n", stats.Evaluations, stats.Accepted, stats.Rejected)
	}
	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range sortedKeys(result.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6g\n", k, result.Metrics[k])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("run stopped early: %w", runErr)
	}
	return nil
}

// launchModel builds the live view for cfg. Restarting the view builds a
// fresh experiment so the animation replays from the same initial state.
func launchModel(name string, cfg *config.Config) (viz.Model, error) {
	reg := experiment.NewRegistry()
	exp, err := experiment.New(cfg, reg)
	if err != nil {
		return viz.Model{}, err
	}
	first := exp.Simulator()
	build := func() (*sim.Simulator, error) {
		if first != nil {
			s := first
			first = nil
			return s, nil
		}
		e, err := experiment.New(cfg, reg)
		if err != nil {
			return nil, err
		}
		return e.Simulator(), nil
	}
	return viz.NewModel(name, build, exp.Params().Radii(), cfg.FPS, 0)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	viz.SetTheme(theme)
	m, err := launchModel(preset, cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tPARTICLES\tFRAMES\tINTEG\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Particles),
			run.Frames,
			run.Integrator,
			status,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d\n", tr.NumParticles())
	fmt.Printf("frames: %d\n\n", tr.Len())
	if tr.Len() < 2 {
		return fmt.Errorf("not enough frames to plot")
	}

	indices := []int{plotParticle}
	if plotParticle < 0 {
		indices = indices[:0]
		for i := 0; i < tr.NumParticles() && i < 6; i++ {
			indices = append(indices, i)
		}
	}
	for _, i := range indices {
		heights, err := tr.Heights(i)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(heights,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("particle %d height", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	heights, err := tr.Heights(particle)
	if err != nil {
		return err
	}
	if tr.Len() < 4 {
		return fmt.Errorf("run %s has too few frames to analyze", runID)
	}

	fmt.Printf("bounce analysis: %s\n", meta.ID)
	fmt.Printf("particle: %d of %d\n\n", particle, tr.NumParticles())

	times := tr.Times()
	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	freq := analysis.DominantFrequency(heights, dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	apexes := analysis.BounceApexes(heights)
	fmt.Printf("rebounds: %d\n", len(apexes))
	for i, h := range apexes {
		if i == 8 {
			fmt.Printf("  ... %d more\n", len(apexes)-i)
			break
		}
		fmt.Printf("  apex %d: %.4f\n", i+1, h)
	}

	portrait, err := analysis.PhasePortrait(tr, particle)
	if err != nil {
		return err
	}
	fmt.Println("\nphase portrait (height vs vertical velocity):")
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 20))

	if lyapunov {
		exp, err := experiment.New(meta.Config, experiment.NewRegistry())
		if err != nil {
			return err
		}
		lambda, err := analysis.LyapunovExponent(exp.Fork, exp.Simulator().State(), 1e-8, exp.FrameTimes())
		if err != nil {
			return err
		}
		fmt.Printf("largest lyapunov exponent: %.4f 1/s\n", lambda)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if sweepSteps < 2 || !(sweepTo > sweepFrom) {
		return fmt.Errorf("%w: sweep needs at least 2 steps over an increasing range", dynamo.ErrInvalidParams)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping elasticity %g..%g over %d runs...\n", sweepFrom, sweepTo, sweepSteps)
	start := time.Now()
	values := automation.Linspace(sweepFrom, sweepTo, sweepSteps)
	points, err := automation.ElasticitySweep(ctx, base, experiment.NewRegistry(), values, particle, 0)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Printf("rebound heights of particle %d vs elasticity:\n", particle)
	fmt.Println(analysis.ApexDiagramToASCII(points, 60, 20))
	return nil
}

// parseAxis reads "name=v1,v2,...".
func parseAxis(s string) (optim.Axis, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return optim.Axis{}, fmt.Errorf("%w: axis %q, want name=v1,v2", dynamo.ErrInvalidParams, s)
	}
	axis := optim.Axis{Name: name}
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return optim.Axis{}, fmt.Errorf("%w: axis %s: %v", dynamo.ErrInvalidParams, name, err)
		}
		axis.Values = append(axis.Values, v)
	}
	return axis, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	axes := make([]optim.Axis, 0, len(tuneAxes))
	for _, s := range tuneAxes {
		a, err := parseAxis(s)
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}
	search, err := optim.NewGridSearch(axes...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("searching %d points for the smallest %s...\n\n", len(search.Points()), tuneMetric)
	trials, best, err := search.Search(ctx, base, experiment.NewRegistry(), tuneMetric, 0)
	if err != nil {
		return err
	}

	names := make([]string, len(axes))
	for i, a := range axes {
		names[i] = a.Name
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(tuneMetric))
	for i, tr := range trials {
		cols := make([]string, len(names))
		for j, n := range names {
			cols[j] = strconv.FormatFloat(tr.Params[n], 'g', -1, 64)
		}
		val := fmt.Sprintf("%.4g", tr.Value)
		if tr.Err != nil {
			val = "error: " + tr.Err.Error()
		} else if i == best {
			val += "  *"
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), val)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if best < 0 {
		return fmt.Errorf("no grid point completed")
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st)
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tENERGY DRIFT\tSTATUS")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%.3g\t%s\n", r.Name, r.RunID, r.Metrics["energy_drift"], status)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	radii := make([]float64, len(meta.Particles))
	for i, p := range meta.Particles {
		radii[i] = p.Radius
	}

	var svg string
	if frameIdx < 0 {
		svg, err = export.PathsToSVG(tr, radii, svgSize)
	} else {
		if frameIdx >= tr.Len() {
			return fmt.Errorf("frame %d out of range [0, %d)", frameIdx, tr.Len())
		}
		pos, _, uerr := dynamo.Unpack(tr.State(frameIdx))
		if uerr != nil {
			return uerr
		}
		svg, err = export.FrameToSVG(pos, radii, svgSize)
	}
	if err != nil {
		return err
	}

	if outFile == "" {
		outFile = runID + ".svg"
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	if outFile == "" {
		return export.ExportJSON(os.Stdout, meta, tr)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := export.ExportJSON(f, meta, tr); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outFile)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPARTICLES\tELASTICITY\tINTEG\tMAX STEP")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		n := cfg.Particles.Count
		if len(cfg.Bodies) > 0 {
			n = len(cfg.Bodies)
		}
		fmt.Fprintf(w, "%s\t%d\t%g\t%s\t%g\n", name, n, cfg.Elasticity, cfg.Integrator.Name, cfg.Integrator.MaxStep)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nintegrators: %s\n", strings.Join(experiment.NewRegistry().ListSolvers(), ", "))
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
