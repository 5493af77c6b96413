// cmd/pipeline/main.go
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding/charmap"

	"github.com/foerderkatalog/pipeline/pkg/config"
	"github.com/foerderkatalog/pipeline/pkg/pipeline"
)

var (
	// Global flags
	csvPath        string
	configFile     string
	outputDir      string
	webDir         string
	skipValidation bool

	logger *zap.Logger
)

// The registry export wraps header names in ="..."; a first line without
// this fragment is not a registry export.
const expectedHeaderFragment = `="FKZ"`

// Exports below this size are almost certainly truncated downloads.
const minInputSizeBytes = 1 << 20

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Förderkatalog analysis pipeline",
	Long: `Analyzes the German federal funding registry export and updates the
dashboard data: cleans the raw CSV, builds every aggregate report plus the
funding forecast, validates the outputs against the source, and deploys the
documents to the web data directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "path to the registry export (overrides config)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&outputDir, "output", "", "report output directory (overrides config)")
	rootCmd.Flags().StringVar(&webDir, "web-dir", "", "web deployment directory (overrides config)")
	rootCmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "skip input file validation")
}

func main() {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err = newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if skipValidation {
		logger.Warn("Skipping input validation")
	} else if err := validateInput(cfg.CSVPath); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if !result.Validation.Passed {
		logger.Error("Consistency validation found errors; outputs deployed anyway, see validation report",
			zap.Int("errors", len(result.Validation.Errors)))
	}

	if err := deployToWeb(p.OutputFiles(), cfg.OutputDir, cfg.WebDir); err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Metrics.Summary())
	return nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadConfigFile(configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if csvPath != "" {
		cfg.CSVPath = csvPath
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if webDir != "" {
		cfg.WebDir = webDir
	}
	return cfg, cfg.Validate()
}

// validateInput rejects input files that are missing or structurally not a
// registry export before any work starts.
func validateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	if info.Size() < minInputSizeBytes {
		logger.Warn("Input file is unusually small, verify it holds the full dataset",
			zap.String("path", path),
			zap.Int64("bytes", info.Size()))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	defer f.Close()

	header, err := bufio.NewReader(charmap.Windows1252.NewDecoder().Reader(f)).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("cannot read header of %s: %w", path, err)
	}
	if !strings.Contains(header, expectedHeaderFragment) {
		return fmt.Errorf("%s does not look like a registry export: header lacks %s", path, expectedHeaderFragment)
	}

	logger.Info("Input validation passed",
		zap.String("path", path),
		zap.Int64("bytes", info.Size()))
	return nil
}

// deployToWeb copies the produced documents into the web data directory and
// stamps the deployment time.
func deployToWeb(files []string, outputDir, webDir string) error {
	if webDir == "" {
		logger.Info("No web directory configured, skipping deployment")
		return nil
	}
	if err := os.MkdirAll(webDir, 0o755); err != nil {
		return fmt.Errorf("failed to create web directory %s: %w", webDir, err)
	}

	for _, name := range files {
		if err := copyFile(filepath.Join(outputDir, name), filepath.Join(webDir, name)); err != nil {
			return err
		}
		logger.Info("Deployed document", zap.String("file", name))
	}

	stamp := time.Now().Format("2006-01-02T15:04:05.000000")
	stampPath := filepath.Join(webDir, "last_update.txt")
	if err := os.WriteFile(stampPath, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", stampPath, err)
	}
	logger.Info("Deployment complete",
		zap.Int("files", len(files)),
		zap.String("webDir", webDir),
		zap.String("timestamp", stamp))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
