package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tremor/internal/config"
	"github.com/san-kum/tremor/internal/export"
	"github.com/san-kum/tremor/internal/metrics"
	"github.com/san-kum/tremor/internal/physics"
	"github.com/san-kum/tremor/internal/report"
	"github.com/san-kum/tremor/internal/seismic"
	"github.com/san-kum/tremor/internal/store"
	"github.com/san-kum/tremor/internal/survey"
	"github.com/san-kum/tremor/internal/tui"
	"github.com/san-kum/tremor/internal/viz"
	"github.com/san-kum/tremor/internal/wavelet"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	outPath    string

	rows     int
	cols     int
	spacing  float64
	dt       float64
	padding  int
	taper    float64
	steps    int
	velocity float64

	chunkRows   int
	compression string
	shuffle     bool

	srcRow  int
	srcCol  int
	wavName string
	amp     float64
	fcut    float64
	delay   float64

	quiet bool

	frame     int
	plotW     int
	plotH     int
	braille   bool
	threshold float64

	recvRow int
	recvCol int
	format  string

	shotSpecs []string
	recvSpecs []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tremor",
		Short: "2d finite-difference seismic wave simulation",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&outPath, "out", "", "store file path (default: transient temp file)")
	runCmd.Flags().IntVar(&rows, "rows", 100, "grid rows")
	runCmd.Flags().IntVar(&cols, "cols", 100, "grid cols")
	runCmd.Flags().Float64Var(&spacing, "spacing", config.DefaultSpacing, "grid spacing (m)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 derives the stable step)")
	runCmd.Flags().IntVar(&padding, "padding", config.DefaultPadding, "absorbing boundary width (cells)")
	runCmd.Flags().Float64Var(&taper, "taper", config.DefaultTaper, "boundary taper decay")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultIterations, "time steps")
	runCmd.Flags().Float64Var(&velocity, "velocity", config.DefaultVelocity, "uniform p-wave velocity (m/s)")
	runCmd.Flags().IntVar(&chunkRows, "chunk-rows", 0, "store chunk rows")
	runCmd.Flags().StringVar(&compression, "compression", "", "store compression (none, s2)")
	runCmd.Flags().BoolVar(&shuffle, "shuffle", false, "byte-shuffle samples before compression")
	runCmd.Flags().IntVar(&srcRow, "src-row", -1, "source row (default: grid center)")
	runCmd.Flags().IntVar(&srcCol, "src-col", -1, "source col (default: grid center)")
	runCmd.Flags().StringVar(&wavName, "wavelet", "ricker", "source wavelet (ricker, gaussian)")
	runCmd.Flags().Float64Var(&amp, "amp", config.DefaultAmp, "source amplitude")
	runCmd.Flags().Float64Var(&fcut, "fcut", config.DefaultFCut, "source cutoff frequency (Hz)")
	runCmd.Flags().Float64Var(&delay, "delay", 0, "source delay (s)")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the progress bar")

	extendCmd := &cobra.Command{
		Use:   "extend [store]",
		Short: "continue a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  extendRun,
	}
	extendCmd.Flags().IntVar(&steps, "steps", config.DefaultIterations, "additional time steps")
	extendCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the progress bar")

	infoCmd := &cobra.Command{
		Use:   "info [store]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [store]",
		Short: "render one frame in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSnapshot,
	}
	snapshotCmd.Flags().IntVar(&frame, "frame", -1, "frame index (negative counts from the end)")
	snapshotCmd.Flags().IntVar(&plotW, "width", 80, "render width (chars)")
	snapshotCmd.Flags().IntVar(&plotH, "height", 24, "render height (chars)")
	snapshotCmd.Flags().BoolVar(&braille, "braille", false, "braille wavefront view")
	snapshotCmd.Flags().Float64Var(&threshold, "threshold", 0.1, "wavefront threshold (fraction of peak)")

	traceCmd := &cobra.Command{
		Use:   "trace [store]",
		Short: "plot the amplitude at a receiver over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotTrace,
	}
	traceCmd.Flags().IntVar(&recvRow, "row", 0, "receiver row (unpadded grid coordinates)")
	traceCmd.Flags().IntVar(&recvCol, "col", 0, "receiver col (unpadded grid coordinates)")

	exportCmd := &cobra.Command{
		Use:   "export [store]",
		Short: "export a frame or receiver trace",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().IntVar(&frame, "frame", -2, "frame to export (negative counts from the end)")
	exportCmd.Flags().IntVar(&recvRow, "row", -1, "receiver row for trace export (unpadded grid coordinates)")
	exportCmd.Flags().IntVar(&recvCol, "col", -1, "receiver col for trace export (unpadded grid coordinates)")
	exportCmd.Flags().StringVar(&format, "format", "csv", "output format (csv, json, svg)")
	exportCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	exportCmd.Flags().Float64Var(&threshold, "threshold", 0.1, "wavefront threshold (svg frame export)")
	exportCmd.Flags().IntVar(&plotW, "width", 100, "canvas width (svg frame export)")
	exportCmd.Flags().IntVar(&plotH, "height", 40, "canvas height (svg frame export)")

	exploreCmd := &cobra.Command{
		Use:   "explore [store]",
		Short: "browse stored frames interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunExplore(args[0])
		},
	}

	surveyCmd := &cobra.Command{
		Use:   "survey",
		Short: "fire multiple shots and print the gathered traces",
		RunE:  runSurvey,
	}
	surveyCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	surveyCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	surveyCmd.Flags().IntVar(&steps, "steps", config.DefaultIterations, "time steps per shot")
	surveyCmd.Flags().StringArrayVar(&shotSpecs, "shot", nil, "shot position row,col in unpadded grid coordinates (repeatable)")
	surveyCmd.Flags().StringArrayVar(&recvSpecs, "receiver", nil, "receiver position row,col in unpadded grid coordinates (repeatable)")
	surveyCmd.Flags().Float64Var(&amp, "amp", config.DefaultAmp, "source amplitude")
	surveyCmd.Flags().Float64Var(&fcut, "fcut", config.DefaultFCut, "source cutoff frequency (Hz)")
	surveyCmd.Flags().StringVar(&format, "format", "csv", "output format (csv, json)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or save one as a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}
	presetsCmd.Flags().StringVar(&outPath, "out", "", "write the preset as a yaml config")

	rootCmd.AddCommand(runCmd, extendCmd, infoCmd, snapshotCmd, traceCmd, exportCmd, exploreCmd, surveyCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRunConfig resolves preset, config file and CLI flags, flags
// winning over the file and the file over the preset.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("rows") {
		cfg.Rows = rows
	}
	if cmd.Flags().Changed("cols") {
		cfg.Cols = cols
	}
	if cmd.Flags().Changed("spacing") {
		cfg.Spacing = spacing
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("padding") {
		cfg.Padding = padding
	}
	if cmd.Flags().Changed("taper") {
		cfg.Taper = taper
	}
	if cmd.Flags().Changed("steps") {
		cfg.Iterations = steps
	}
	if cmd.Flags().Changed("velocity") {
		cfg.Model = config.ModelConfig{Velocity: velocity}
	}
	if cmd.Flags().Changed("out") {
		cfg.Store.Path = outPath
	}
	if cmd.Flags().Changed("chunk-rows") {
		cfg.Store.ChunkRows = chunkRows
	}
	if cmd.Flags().Changed("compression") {
		cfg.Store.Compression = compression
	}
	if cmd.Flags().Changed("shuffle") {
		cfg.Store.Shuffle = shuffle
	}

	if cmd.Flags().Changed("src-row") || cmd.Flags().Changed("src-col") || cmd.Flags().Changed("wavelet") ||
		cmd.Flags().Changed("amp") || cmd.Flags().Changed("fcut") || cmd.Flags().Changed("delay") {
		r, c := srcRow, srcCol
		if r < 0 {
			r = cfg.Rows / 2
		}
		if c < 0 {
			c = cfg.Cols / 2
		}
		wname := wavName
		if wname == "" {
			wname = "ricker"
		}
		cfg.Sources = []config.SourceConfig{{
			Row: r, Col: c, Wavelet: wname, Amp: amp, FCut: fcut, Delay: delay,
		}}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSimulation(cfg *config.Config) (*seismic.Simulation, error) {
	model := physics.UniformModel(cfg.Rows, cfg.Cols, cfg.Model.Velocity)
	if len(cfg.Model.Layers) > 0 {
		layers := make([]physics.Layer, len(cfg.Model.Layers))
		for i, l := range cfg.Model.Layers {
			layers[i] = physics.Layer{Rows: l.Rows, Velocity: l.Velocity}
		}
		model = physics.LayeredModel(cfg.Rows, cfg.Cols, layers)
	}

	dz := cfg.SpacingZ
	if dz == 0 {
		dz = cfg.Spacing
	}
	kernel, err := physics.NewAcoustic(model, cfg.Spacing, dz, cfg.Padding, cfg.Taper)
	if err != nil {
		return nil, err
	}

	params := seismic.Params{
		Rows:    cfg.Rows,
		Cols:    cfg.Cols,
		DX:      cfg.Spacing,
		DZ:      cfg.SpacingZ,
		Dt:      cfg.Dt,
		Padding: cfg.Padding,
		Taper:   cfg.Taper,
		Store: store.Options{
			ChunkRows:   cfg.Store.ChunkRows,
			Compression: cfg.Store.Compression,
			Shuffle:     cfg.Store.Shuffle,
		},
	}

	var st *store.Store
	if cfg.Store.Path != "" {
		st = store.New(cfg.Store.Path)
	}

	sim, err := seismic.New(kernel, params, st)
	if err != nil {
		return nil, err
	}

	for _, s := range cfg.Sources {
		var w wavelet.Wavelet
		switch s.Wavelet {
		case "gaussian":
			w = &wavelet.Gaussian{Amp: s.Amp, FCut: s.FCut, Delay: s.Delay}
		default:
			w = &wavelet.Ricker{Amp: s.Amp, FCut: s.FCut, Delay: s.Delay}
		}
		if err := sim.AddSource(s.Row, s.Col, w); err != nil {
			sim.Close()
			return nil, err
		}
	}
	return sim, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	sim, err := buildSimulation(cfg)
	if err != nil {
		return err
	}
	defer sim.Close()

	return driveRun(cmd, sim, cfg.Iterations)
}

func extendRun(cmd *cobra.Command, args []string) error {
	sim, err := physics.FromStore(args[0])
	if err != nil {
		return err
	}
	defer sim.Close()

	return driveRun(cmd, sim, steps)
}

func driveRun(cmd *cobra.Command, sim *seismic.Simulation, iterations int) error {
	if !quiet {
		sim.SetReporter(report.NewBar(os.Stderr))
	}

	energy := metrics.NewFieldEnergy()
	peak := metrics.NewPeakAmplitude()
	stable := metrics.NewStability(0)
	sim.AddObserver(energy)
	sim.AddObserver(peak)
	sim.AddObserver(stable)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sim.Run(ctx, iterations); err != nil {
		return err
	}

	r, c := sim.Shape()
	fmt.Printf("frames: %d  grid: %dx%d  dt: %.3es\n", sim.Size(), r, c, sim.Dt())
	fmt.Printf("peak amplitude: %.3e (frame %d)  mean energy: %.3e  stable: %.0f%%\n",
		peak.Value(), peak.Iteration(), energy.Value(), 100*stable.Value())
	fmt.Printf("store: %s\n", sim.Store().Path())
	return nil
}

func openFrames(path string) (*store.Store, error) {
	st, err := store.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	if st.Committed() == 0 {
		st.Close()
		return nil, fmt.Errorf("%s holds no committed frames", path)
	}
	return st, nil
}

// resolveFrame maps a possibly-negative frame index onto [0, n).
func resolveFrame(index, n int) (int, error) {
	i := index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("frame %d out of range (%d committed)", index, n)
	}
	return i, nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	st, err := openFrames(args[0])
	if err != nil {
		return err
	}
	defer st.Close()

	var meta seismic.Meta
	if err := st.Meta(&meta); err != nil {
		return fmt.Errorf("read run metadata: %w", err)
	}

	r, c := st.Shape()
	opts := st.Options()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "store\t%s\n", st.Path())
	fmt.Fprintf(w, "kernel\t%s\n", meta.Kernel)
	fmt.Fprintf(w, "grid\t%dx%d (padding %d)\n", meta.Rows, meta.Cols, meta.Padding)
	fmt.Fprintf(w, "spacing\t%g x %g m\n", meta.DX, meta.DZ)
	if model, err := st.ReadModel(); err == nil {
		fmt.Fprintf(w, "velocity\tmax %g m/s\n", model.Max())
	}
	fmt.Fprintf(w, "dt\t%.3es\n", meta.Dt)
	fmt.Fprintf(w, "frames\t%d committed / %d capacity (%dx%d panels)\n", st.Committed(), st.Capacity(), r, c)
	fmt.Fprintf(w, "duration\t%.4fs simulated\n", float64(st.Committed())*meta.Dt)
	comp := opts.Compression
	if comp == "" {
		comp = "none"
	}
	fmt.Fprintf(w, "compression\t%s (shuffle %v)\n", comp, opts.Shuffle)
	for i, s := range meta.Sources {
		fmt.Fprintf(w, "source %d\t%s at (%d, %d), amp %g, fcut %g Hz\n", i, s.Wavelet, s.Row, s.Col, s.Amp, s.FCut)
	}
	return w.Flush()
}

func renderSnapshot(cmd *cobra.Command, args []string) error {
	st, err := openFrames(args[0])
	if err != nil {
		return err
	}
	defer st.Close()

	i, err := resolveFrame(frame, st.Committed())
	if err != nil {
		return err
	}
	p, err := st.ReadSlot(i)
	if err != nil {
		return err
	}

	if braille {
		c := viz.NewCanvas(plotW, plotH)
		c.DrawPanel(p, threshold)
		fmt.Print(c.String())
	} else {
		fmt.Print(viz.Render(p, plotW, plotH))
	}
	fmt.Printf("frame %d/%d  peak %.3e\n", i, st.Committed()-1, p.MaxAbs())
	return nil
}

func plotTrace(cmd *cobra.Command, args []string) error {
	st, err := openFrames(args[0])
	if err != nil {
		return err
	}
	defer st.Close()

	var meta seismic.Meta
	if err := st.Meta(&meta); err != nil {
		return fmt.Errorf("read run metadata: %w", err)
	}

	samples, err := export.TracePhysical(st, recvRow, recvCol, meta.Padding)
	if err != nil {
		return err
	}

	graph := asciigraph.Plot(samples,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude at (%d, %d), dt %.2es", recvRow, recvCol, meta.Dt)),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openFrames(args[0])
	if err != nil {
		return err
	}
	defer st.Close()

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if recvRow >= 0 && recvCol >= 0 {
		var meta seismic.Meta
		if err := st.Meta(&meta); err != nil {
			return fmt.Errorf("read run metadata: %w", err)
		}
		samples, err := export.TracePhysical(st, recvRow, recvCol, meta.Padding)
		if err != nil {
			return err
		}
		switch format {
		case "json":
			return export.TraceJSON(out, recvRow, recvCol, meta.Dt, samples)
		case "svg":
			_, err := fmt.Fprintln(out, export.TraceSVG(samples, 800, 300, "#00ff00"))
			return err
		default:
			return export.TraceCSV(out, samples, meta.Dt)
		}
	}

	idx := frame
	if idx == -2 { // flag default: last frame
		idx = -1
	}
	i, err := resolveFrame(idx, st.Committed())
	if err != nil {
		return err
	}
	p, err := st.ReadSlot(i)
	if err != nil {
		return err
	}

	switch format {
	case "svg":
		c := viz.NewCanvas(plotW, plotH)
		c.DrawPanel(p, threshold)
		_, err := fmt.Fprintln(out, export.WavefrontSVG(c, 4))
		return err
	default:
		return export.PanelCSV(out, p)
	}
}

func parsePosition(spec string) (int, int, error) {
	var r, c int
	if _, err := fmt.Sscanf(spec, "%d,%d", &r, &c); err != nil {
		return 0, 0, fmt.Errorf("bad position %q, want row,col", spec)
	}
	return r, c, nil
}

func runSurvey(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if len(shotSpecs) == 0 || len(recvSpecs) == 0 {
		return fmt.Errorf("survey needs at least one --shot and one --receiver")
	}

	w := wavelet.NewRicker(amp, fcut)
	shots := make([]survey.Shot, len(shotSpecs))
	for i, spec := range shotSpecs {
		r, c, err := parsePosition(spec)
		if err != nil {
			return err
		}
		shots[i] = survey.Shot{Row: r, Col: c, Wavelet: w}
	}
	receivers := make([]survey.Receiver, len(recvSpecs))
	for i, spec := range recvSpecs {
		r, c, err := parsePosition(spec)
		if err != nil {
			return err
		}
		receivers[i] = survey.Receiver{Row: r, Col: c}
	}

	// Shots are injected per run, so the base config carries none.
	cfg.Sources = nil

	build := func() (*seismic.Simulation, error) {
		shotCfg := *cfg
		shotCfg.Store.Path = "" // each shot gets its own transient store
		return buildSimulation(&shotCfg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := survey.New(build, steps, receivers).Run(ctx, shots)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	cw := csv.NewWriter(os.Stdout)
	if err := cw.Write([]string{"shot_row", "shot_col", "recv_row", "recv_col", "step", "amplitude"}); err != nil {
		return err
	}
	for _, rec := range records {
		for j, tr := range rec.Traces {
			for k, v := range tr {
				row := []string{
					strconv.Itoa(rec.Shot.Row), strconv.Itoa(rec.Shot.Col),
					strconv.Itoa(receivers[j].Row), strconv.Itoa(receivers[j].Col),
					strconv.Itoa(k), strconv.FormatFloat(v, 'g', -1, 64),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("available presets:")
		for _, name := range config.ListPresets() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	p := config.GetPreset(args[0])
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %s)", args[0], strings.Join(config.ListPresets(), ", "))
	}
	if outPath == "" {
		return fmt.Errorf("use --out to save preset %s as a config file", args[0])
	}
	if err := config.Save(outPath, p); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}
