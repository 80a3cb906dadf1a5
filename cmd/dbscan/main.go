// Command dbscan clusters a file of 2-D point records.
//
// Usage:
//
//	dbscan [flags] input cluster_count eps min_pts
//
// Each record is "id<TAB>x<TAB>y". The run prints its outlier, adjusted and
// remaining counts to stdout and writes the largest cluster_count clusters
// to <stem>_cluster_<rank>.txt, one point id per line.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/config"
	"github.com/TrevorS/dbscan/internal/logging"
	"github.com/TrevorS/dbscan/recordio"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dbscan: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dbscan", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML run configuration")
	delimiter := fs.String("delimiter", "", "record field delimiter (default tab)")
	outDir := fs.String("out-dir", "", "directory for cluster files (default: next to input)")
	index := fs.String("index", "", "neighbor index: auto, brute, brute_parallel, kdtree")
	leafSize := fs.Int("leaf-size", 0, "KD-tree leaf size")
	workers := fs.Int("workers", 0, "goroutines for brute_parallel (0 = NumCPU)")
	matchRef := fs.Bool("match-reference", false, "never adjust noise into the first discovered cluster")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "log format: json, console")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: dbscan [flags] input cluster_count eps min_pts")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var cfg config.Run
	if *configPath != "" {
		if err := config.LoadFile(*configPath, &cfg); err != nil {
			return err
		}
	}
	if err := cfg.ApplyArgs(fs.Args()); err != nil {
		fs.Usage()
		return err
	}

	// Flags override the file only when given explicitly.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "delimiter":
			cfg.Delimiter = *delimiter
		case "out-dir":
			cfg.OutputDir = *outDir
		case "index":
			cfg.Index = *index
		case "leaf-size":
			cfg.LeafSize = *leafSize
		case "workers":
			cfg.Workers = *workers
		case "match-reference":
			cfg.MatchReference = *matchRef
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	base, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = base.Sync() }()
	logger, _ := logging.WithRunID(base)

	points, err := recordio.LoadFile(cfg.Input, cfg.DelimiterRune())
	if err != nil {
		logger.Error("load input", zap.String("input", cfg.Input), zap.Error(err))
		return err
	}

	engineCfg := cfg.Engine()
	engineCfg.Logger = logger

	start := time.Now()
	result, err := dbscan.Run(points, engineCfg)
	if err != nil {
		return err
	}
	logger.Info("clustering finished",
		zap.Int("points", len(points)),
		zap.Int("clusters", len(result.Clusters)),
		zap.Int("outliers", len(result.Noise)),
		zap.Int("adjusted", result.Adjusted),
		zap.Duration("duration", time.Since(start)),
	)

	if err := recordio.WriteStatus(stdout, len(result.Noise), result.Adjusted); err != nil {
		return err
	}

	sink := &recordio.FileSink{Stem: recordio.StemFor(cfg.Input), Dir: cfg.OutputDir}
	n, err := dbscan.Export(result, sink)
	if err != nil {
		return err
	}
	logger.Info("clusters exported", zap.Int("files", n), zap.Strings("paths", sink.Written()))
	return nil
}
