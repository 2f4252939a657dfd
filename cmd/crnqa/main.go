package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crn-tools/crnqa"
)

var (
	fileName = flag.String("file", "segment.geojson", "Filename of the GeoJSON arc layer to validate")
	layer    = flag.String("layer", "", "Layer name; defaults to the source file name without extension")
	dst      = flag.String("dst", "", "Destination directory for repaired layers; defaults to the source directory")
	logName  = flag.String("log", "validations.log", "Filename of the validation error log")
	repair   = flag.Bool("repair", false, "Repair invalid/duplicated identifiers instead of aborting")
	remove   = flag.Bool("remove", false, "Remove a pre-existing error log instead of aborting")
)

func setupLogger() *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	flag.Parse()
	logger := setupLogger()

	layerName := *layer
	if layerName == "" {
		layerName = strings.TrimSuffix(filepath.Base(*fileName), filepath.Ext(*fileName))
	}
	dstDir := *dst
	if dstDir == "" {
		dstDir = filepath.Dir(*fileName)
	}

	if _, err := os.Stat(*logName); err == nil {
		if !*remove {
			logger.Error("Conflicting error log exists; pass -remove or clear the output namespace", "log", *logName)
			os.Exit(1)
		}
		logger.Info("Removing conflicting file", "log", *logName)
		if err := os.Remove(*logName); err != nil {
			logger.Error("Can't remove error log", "error", err)
			os.Exit(1)
		}
	}

	st := time.Now()

	logger.Info("Loading source data", "file", *fileName, "layer", layerName)
	arcs, err := crnqa.LoadArcsFromGeoJSON(*fileName)
	if err != nil {
		logger.Error("Can't load source data", "error", err)
		os.Exit(1)
	}
	logger.Info("Successfully loaded source data", "arcs", arcs.Len())

	mode := crnqa.IDENTIFIER_STRICT
	if *repair {
		mode = crnqa.IDENTIFIER_REPAIR
	}
	validator, err := crnqa.NewValidator(arcs, crnqa.ValidatorParams{
		Config:         crnqa.DefaultConfig(),
		Exporter:       crnqa.GeoJSONExporter{},
		Destination:    dstDir,
		Layer:          layerName,
		IdentifierMode: mode,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("Unable to initiate validator", "error", err)
		os.Exit(1)
	}

	report, err := validator.Run()
	if err != nil {
		logger.Error("Unable to apply validation", "error", err)
		os.Exit(1)
	}

	logger.Info("Writing error logs", "log", *logName)
	logFile, err := os.Create(*logName)
	if err != nil {
		logger.Error("Can't create error log", "error", err)
		os.Exit(1)
	}
	if err := report.WriteLog(logFile); err != nil {
		logFile.Close()
		logger.Error("Can't write error log", "error", err)
		os.Exit(1)
	}
	logFile.Close()

	flaggedName := filepath.Join(dstDir, layerName+"_flagged.geojson")
	if err := crnqa.ExportFlagged(arcs, report, flaggedName); err != nil {
		logger.Error("Can't write flagged layer", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Validation finished in %v: %d rule(s) with violations\n", time.Since(st), report.Len())
}
