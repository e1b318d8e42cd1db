package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"synaptical/internal/config"
	"synaptical/internal/logging"
	"synaptical/internal/storage"
	"synaptical/pkg/synaptical"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "activate":
		return runActivate(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "import":
		return runImport(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "inspect":
		return runInspect(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind     *string
	dbPath   *string
	logLevel *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:     fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:   fs.String("db-path", "synaptical.db", "sqlite database path"),
		logLevel: fs.String("log-level", "warning", "log level: debug|info|warning|error"),
	}
}

func (f storeFlags) client() (*synaptical.Client, error) {
	if err := setupLogging(*f.logLevel); err != nil {
		return nil, err
	}
	client, err := synaptical.New(synaptical.Options{StoreKind: *f.kind, DBPath: *f.dbPath})
	if errors.Is(err, storage.ErrUnsupportedStore) {
		return nil, fmt.Errorf("%w (--store accepts %s)", err, strings.Join(storage.Kinds(), "|"))
	}
	return client, err
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional config file (json|yaml|toml)")
	networkID := fs.String("network-id", "", "continue training a stored network")
	layers := fs.String("layers", "2,3,1", "comma separated perceptron layer sizes")
	rate := fs.Float64("rate", 0.2, "learning rate")
	schedule := fs.String("rate-schedule", "", "comma separated rates spread evenly across iterations")
	iterations := fs.Int("iterations", 100000, "maximum training iterations")
	targetError := fs.Float64("error", 0.005, "target mean error")
	costName := fs.String("cost", "mse", "cost function: mse|cross_entropy|binary")
	squash := fs.String("squash", "logistic", "squash function for new networks")
	datasetName := fs.String("dataset", "xor", "training set: xor|and|or|nand|nor")
	seed := fs.Int64("seed", 0, "weight initialization seed (0 uses the clock)")
	logEvery := fs.Int("log-every", 0, "log progress every N iterations (0 disables)")
	shuffle := fs.Bool("shuffle", false, "shuffle samples every iteration")
	testSize := fs.Float64("test-size", 0, "fraction of samples held out for cross validation (0 disables)")
	testError := fs.Float64("test-error", 0, "cross validation error that stops training")
	save := fs.Bool("save", false, "persist the trained network and run record")
	jsonOut := fs.Bool("json", false, "emit the summary as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "synaptical.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warning|error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if setFlags["layers"] {
		if cfg.Layers, err = parseInts(*layers); err != nil {
			return fmt.Errorf("layers: %w", err)
		}
	}
	if setFlags["rate-schedule"] {
		if cfg.RateSchedule, err = parseFloats(*schedule); err != nil {
			return fmt.Errorf("rate-schedule: %w", err)
		}
	}
	if setFlags["rate"] {
		cfg.Rate = *rate
	}
	if setFlags["iterations"] {
		cfg.Iterations = *iterations
	}
	if setFlags["error"] {
		cfg.Error = *targetError
	}
	if setFlags["cost"] {
		cfg.Cost = *costName
	}
	if setFlags["squash"] {
		cfg.Squash = *squash
	}
	if setFlags["dataset"] {
		cfg.Dataset = *datasetName
	}
	if setFlags["seed"] {
		cfg.Seed = *seed
	}
	if setFlags["log-every"] {
		cfg.LogEvery = *logEvery
	}
	if setFlags["shuffle"] {
		cfg.Shuffle = *shuffle
	}
	if setFlags["test-size"] {
		cfg.CrossValidate.TestSize = *testSize
	}
	if setFlags["test-error"] {
		cfg.CrossValidate.TestError = *testError
	}
	if setFlags["store"] {
		cfg.Store = *storeKind
	}
	if setFlags["db-path"] {
		cfg.DBPath = *dbPath
	}
	if setFlags["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		return err
	}

	client, err := synaptical.New(synaptical.Options{StoreKind: cfg.Store, DBPath: cfg.DBPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := synaptical.RequestFromConfig(cfg)
	req.NetworkID = *networkID
	req.Save = *save
	summary, err := client.Train(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		return writeJSON(struct {
			NetworkID  string      `json:"network_id"`
			RunID      string      `json:"run_id,omitempty"`
			Error      float64     `json:"error"`
			Iterations int         `json:"iterations"`
			ElapsedMS  int64       `json:"elapsed_ms"`
			Outputs    [][]float64 `json:"outputs"`
		}{
			NetworkID:  summary.NetworkID,
			RunID:      summary.RunID,
			Error:      summary.Error,
			Iterations: summary.Iterations,
			ElapsedMS:  summary.Elapsed.Milliseconds(),
			Outputs:    summary.Outputs,
		})
	}

	runID := summary.RunID
	if runID == "" {
		runID = "unsaved"
	}
	fmt.Fprintf(stdout, "network_id=%s run_id=%s iterations=%s error=%.6f elapsed=%s\n",
		summary.NetworkID,
		runID,
		humanize.Comma(int64(summary.Iterations)),
		summary.Error,
		summary.Elapsed.Round(time.Millisecond),
	)
	for i, out := range summary.Outputs {
		fmt.Fprintf(stdout, "sample=%d output=%s\n", i, formatFloats(out))
	}
	return nil
}

func runActivate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	networkID := fs.String("network-id", "", "stored network id")
	input := fs.String("input", "", "comma separated input values")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *networkID == "" {
		return errors.New("network-id is required")
	}
	values, err := parseFloats(*input)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.Activate(ctx, *networkID, values)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "output=%s\n", formatFloats(out))
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	networkID := fs.String("network-id", "", "stored network id")
	outPath := fs.String("out", "", "output file (default stdout)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *networkID == "" {
		return errors.New("network-id is required")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	data, err := client.ExportNetwork(ctx, *networkID)
	if err != nil {
		return err
	}
	if *outPath == "" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported network=%s path=%s size=%s\n", *networkID, *outPath, humanize.Bytes(uint64(len(data))))
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	inPath := fs.String("in", "", "network JSON file")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("in is required")
	}
	data, err := os.ReadFile(*inPath)
	if err != nil {
		return err
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	id, err := client.ImportNetwork(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported network=%s size=%s\n", id, humanize.Bytes(uint64(len(data))))
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit networks as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Networks(ctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		type listItem struct {
			ID          string `json:"id"`
			Layers      []int  `json:"layers"`
			Connections int    `json:"connections"`
			Runs        int    `json:"runs"`
		}
		out := make([]listItem, 0, len(items))
		for _, item := range items {
			out = append(out, listItem(item))
		}
		return writeJSON(out)
	}
	if len(items) == 0 {
		fmt.Fprintln(stdout, "no networks found")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "network_id=%s layers=%s connections=%d runs=%d\n",
			item.ID, formatInts(item.Layers), item.Connections, item.Runs)
	}
	return nil
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	networkID := fs.String("network-id", "", "stored network id")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *networkID == "" {
		return errors.New("network-id is required")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	detail, err := client.Inspect(ctx, *networkID)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "network_id=%s layers=%s connections=%d gated=%d runs=%d\n",
		detail.ID, formatInts(detail.Layers), detail.Connections, detail.Gated, detail.Runs)
	names := make([]string, 0, len(detail.Squashes))
	for name := range detail.Squashes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "squash=%s neurons=%d\n", name, detail.Squashes[name])
	}
	for _, run := range detail.History {
		fmt.Fprintf(stdout, "run_id=%s dataset=%s cost=%s rate=%g iterations=%s error=%.6f created=%s\n",
			run.ID,
			run.Dataset,
			run.Cost,
			run.Rate,
			humanize.Comma(int64(run.Iterations)),
			run.Error,
			humanize.Time(run.CreatedAt),
		)
	}
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	networkID := fs.String("network-id", "", "stored network id")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *networkID == "" {
		return errors.New("network-id is required")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.DeleteNetwork(ctx, *networkID); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted network=%s\n", *networkID)
	return nil
}

func setupLogging(level string) error {
	if logging.Logger() == nil {
		logging.Default()
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	return logging.SetLevel(parsed)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseInts(raw string) ([]int, error) {
	fields := splitList(raw)
	out := make([]int, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(raw string) ([]float64, error) {
	fields := splitList(raw)
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, field := range strings.Split(raw, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return strings.Join(parts, ",")
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "-")
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: synapticalctl <train|activate|export|import|list|inspect|delete> [flags]", msg)
}
