package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"pmpshapes/pkg/config"
	"pmpshapes/pkg/descriptors"
	"pmpshapes/pkg/pmp"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "pmpshapes.yaml", "YAML configuration file (defaults are used if it does not exist)")
	inputPath := flag.String("input", "", "sIMPLE particle file (.pmp)")
	outputDir := flag.String("output-dir", "", "Directory for particle and contour images")
	csvPath := flag.String("csv", "", "Destination of the descriptor table")
	sqlitePath := flag.String("sqlite", "", "Optional SQLite database for descriptors")
	plotDir := flag.String("plots", "", "Optional directory for descriptor plots")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: from config)")
	verbose := flag.Bool("verbose", false, "Print per-particle and per-contour details")
	dump := flag.Bool("dump", false, "Print the decoded particles and exit")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.Path = *inputPath
		case "output-dir":
			cfg.Output.Dir = *outputDir
		case "csv":
			cfg.Output.CSVPath = *csvPath
		case "sqlite":
			cfg.Output.SQLitePath = *sqlitePath
		case "plots":
			cfg.Output.PlotDir = *plotDir
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		flag.Usage()
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *dump {
		if err := dumpParticles(cfg.Input.Path, cfg.Input.NameEncoding); err != nil {
			fatalParse(err)
		}
		return
	}

	fmt.Println("================================")
	fmt.Println("sIMPLE PARTICLE SHAPE DESCRIPTORS")
	fmt.Println("================================")

	params := &descriptors.Params{
		InputPath:          cfg.Input.Path,
		NameEncoding:       cfg.Input.NameEncoding,
		OutputDir:          cfg.Output.Dir,
		CSVPath:            cfg.Output.CSVPath,
		SQLitePath:         cfg.Output.SQLitePath,
		PlotDir:            cfg.Output.PlotDir,
		NumCores:           cfg.Processing.NumCores,
		MaxMaskPixels:      cfg.Processing.MaxMaskPixels,
		IntegerAspectRatio: cfg.Processing.IntegerAspectRatio,
		SaveParticleImages: cfg.Output.SaveParticleImages,
		SaveContourImages:  cfg.Output.SaveContourImages,
		Verbose:            cfg.Output.Verbose,
	}

	pipeline := descriptors.NewPipeline(params, nil)

	fmt.Printf("Describing particles of %s using %d cores...\n", params.InputPath, params.NumCores)
	startTime := time.Now()
	if err := pipeline.Process(); err != nil {
		fatalParse(err)
	}
	processingTime := time.Since(startTime)

	s := pipeline.GetSummary()
	fmt.Printf("\nDescriptors completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Descriptor table saved to: %s\n\n", params.CSVPath)

	fmt.Printf("Particles declared: %d\n", s.DeclaredParticles)
	fmt.Printf("Particles described: %d\n", s.Particles)
	fmt.Printf("Contours written: %d\n", s.Contours)
	fmt.Printf("Contours without elongation: %d\n", s.EllipseUnavailable)
	if s.Contours > 0 {
		fmt.Printf("Mean contour area: %.3f (std %.3f)\n", s.MeanArea, s.StdArea)
	}

	if len(s.Skipped) > 0 {
		fmt.Printf("\nSkipped %d particles:\n", len(s.Skipped))
		for _, sk := range s.Skipped {
			fmt.Printf("- particle %d: %v\n", sk.Index, sk.Err)
		}
	}

	if params.SaveParticleImages || params.SaveContourImages {
		fmt.Printf("\nImages saved to: %s\n", params.OutputDir)
	}
	if params.PlotDir != "" {
		fmt.Printf("Plots saved to: %s\n", params.PlotDir)
	}
}

// dumpParticles prints the header count and one line per decoded particle
func dumpParticles(path, encoding string) error {
	parser, err := pmp.NewParser(encoding)
	if err != nil {
		return err
	}
	pf, err := parser.ParseFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d particles\n", path, pf.DeclaredCount)
	for _, p := range pf.Particles {
		fmt.Printf("%5d @%-8d tag=%d flag=%d pixels=%d mean=(%d,%d) major=%g minor=%g volume=%g mass=%g number=%g matched=%g name=%q\n",
			p.Index, p.Offset, p.RecordTag, p.Flag, p.PixelCount, p.MeanX, p.MeanY,
			p.MajorDimension, p.MinorDimension, p.Volume, p.Mass,
			p.ParticleNumber, p.MatchedParticleNumber, p.Name)
	}
	if pf.TrailingBytes > 0 {
		fmt.Printf("%d trailing bytes\n", pf.TrailingBytes)
	}
	return nil
}

// fatalParse reports the failing record and offset when the file is malformed
func fatalParse(err error) {
	var rerr *pmp.RecordError
	if errors.As(err, &rerr) {
		log.Fatalf("Malformed particle %d (record at byte %d, %s at byte %d): %v", rerr.Index, rerr.Start, rerr.Field, rerr.Offset, err)
	}
	log.Fatalf("Processing failed: %v", err)
}
