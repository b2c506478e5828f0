// Command easytextract extracts text from documents into .txt files.
//
// Usage:
//
//	easytextract [flags] <file-or-dir> [more inputs...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/easytextract/easytextract/constants"
	"github.com/easytextract/easytextract/internal/batch"
	"github.com/easytextract/easytextract/internal/config"
	"github.com/easytextract/easytextract/internal/export"
	"github.com/easytextract/easytextract/internal/extract"
	"github.com/easytextract/easytextract/internal/logging"
	"github.com/easytextract/easytextract/internal/manifest"
	"github.com/easytextract/easytextract/internal/ocr"
	"github.com/easytextract/easytextract/internal/ocr/gosseract"
	"github.com/easytextract/easytextract/internal/store"
	"github.com/easytextract/easytextract/internal/textproc"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out          = flag.String("out", "", "directory for the extracted .txt files (default: alongside each input)")
		filetypes    = flag.String("filetypes", "pdf;docx;doc", "\";\"-separated extensions to process")
		langs        = flag.String("langs", "en;fr;nl", "\";\"-separated language allowlist for the gibberish gate")
		accents      = flag.Bool("accents", false, "fold accented characters to ASCII")
		noLowercase  = flag.Bool("no-lowercase", false, "keep the original casing")
		noOCR        = flag.Bool("no-ocr", false, "disable the OCR fallback for image-only PDFs")
		forceOCR     = flag.Bool("force-ocr", false, "skip text parsers and OCR every PDF/image")
		strict       = flag.Bool("strict", false, "stop at the first failed file")
		workers      = flag.Int("workers", 4, "number of files processed in parallel")
		dbDSN        = flag.String("db", "", "database DSN for dedup and job history (default: $DB_URL)")
		report       = flag.String("report", "", "write a job report here (.xlsx or .csv, needs -db)")
		manifestPath = flag.String("manifest", "", "read the run description from a JSON manifest instead of flags")
		logFile      = flag.String("log", "", "tee log output to this file")
		silent       = flag.Bool("silent", false, "suppress console logging")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:  level,
		Format: "text",
		File:   *logFile,
		Silent: *silent,
	})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	inputs := flag.Args()
	opts := batch.Options{
		OutputDir:  *out,
		Extensions: constants.ParseExtList(*filetypes),
		SkipHidden: true,
		Strict:     *strict,
		Workers:    *workers,
		Clean: textproc.Options{
			RemoveAccents: *accents,
			Lowercase:     !*noLowercase,
		},
	}
	langList := textproc.ParseLangList(*langs)

	cfg := config.Load()
	disableOCR := *noOCR
	ocrMode := ""
	if *forceOCR {
		ocrMode = "force"
	}

	if *manifestPath != "" {
		m, err := manifest.Load(*manifestPath)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		inputs = m.Inputs
		opts.OutputDir = m.OutputDir
		if len(m.Filetypes) > 0 {
			opts.Extensions = constants.ParseExtList(strings.Join(m.Filetypes, ";"))
		}
		if len(m.Languages) > 0 {
			langList = m.Languages
		}
		opts.Strict = m.Strict
		if m.Workers > 0 {
			opts.Workers = m.Workers
		}
		opts.Clean.RemoveAccents = m.RemoveAccents
		opts.Clean.Lowercase = m.Lowercase == nil || *m.Lowercase
		disableOCR = m.OCR == "off"
		ocrMode = m.OCR
	}

	if len(inputs) == 0 {
		printError("Error: at least one input file or directory is required\n")
		flag.Usage()
		os.Exit(1)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Dir(inputs[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var engine ocr.Engine
	if !disableOCR {
		if cfg.OCR.UseGosseract {
			engine = gosseract.New(strings.Split(cfg.OCR.Language, "+"), cfg.OCR.TessdataDir)
		} else {
			engine = ocr.NewTesseractEngine(ocr.Config{
				Tesseract:           cfg.OCR.Tesseract,
				Language:            cfg.OCR.Language,
				TessdataDir:         cfg.OCR.TessdataDir,
				PSM:                 cfg.OCR.PSM,
				OEM:                 cfg.OCR.OEM,
				EnableTSVConfidence: cfg.OCR.TSVConfidence,
			}, nil, logger)
		}
	}

	extractor := extract.New(extract.Config{
		Pdftotext:  cfg.Extract.Pdftotext,
		Pdftoppm:   cfg.Extract.Pdftoppm,
		Antiword:   cfg.Extract.Antiword,
		DPI:        cfg.OCR.DPI,
		MaxPages:   cfg.Extract.MaxPages,
		ForceOCR:   ocrMode == "force",
		DisableOCR: disableOCR,
		Lang:       textproc.LangFilter{Allow: langList},
	}, nil, engine, logger)

	dsn := *dbDSN
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	var st *store.Store
	if dsn != "" || *report != "" {
		db, driver, err := store.Open(ctx, dsn, logger)
		if err != nil {
			printError("Error: opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			printError("Error: preparing database: %v\n", err)
			os.Exit(1)
		}
		st = store.New(db, driver, logger)
	}

	var recorder batch.Recorder
	if st != nil {
		recorder = st
	}
	processor := batch.NewProcessor(extractor, recorder, logger)
	results, stats, err := processor.Run(ctx, inputs, opts)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("scanned %d, matched %d, skipped %d\n", stats.Scanned, stats.Matched, stats.Skipped)
	fmt.Printf("succeeded %d, failed %d, deduplicated %d\n", stats.Succeeded, stats.Failed, stats.Deduplicated)
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("FAILED  %s: %s\n", r.Path, r.Err)
		}
	}

	if *report != "" && st != nil {
		svc := export.NewService(st.Files, st.Jobs, logger)
		var data []byte
		switch strings.ToLower(filepath.Ext(*report)) {
		case ".csv":
			data, err = svc.JobsCSV(ctx, 10000)
		default:
			data, err = svc.JobsXLSX(ctx, 10000)
		}
		if err == nil {
			err = os.WriteFile(*report, data, 0o644)
		}
		if err != nil {
			printError("Error: writing report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("report written to %s\n", *report)
	}

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
