// Command extractd serves text extraction over HTTP and optionally watches
// directories for new documents.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/easytextract/easytextract/constants"
	"github.com/easytextract/easytextract/internal/batch"
	"github.com/easytextract/easytextract/internal/config"
	"github.com/easytextract/easytextract/internal/export"
	"github.com/easytextract/easytextract/internal/extract"
	"github.com/easytextract/easytextract/internal/logging"
	"github.com/easytextract/easytextract/internal/ocr"
	"github.com/easytextract/easytextract/internal/ocr/gosseract"
	"github.com/easytextract/easytextract/internal/server"
	"github.com/easytextract/easytextract/internal/storage/localfs"
	"github.com/easytextract/easytextract/internal/store"
	"github.com/easytextract/easytextract/internal/textproc"
	"github.com/easytextract/easytextract/internal/watch"
)

func main() {
	var (
		watchDirs = flag.String("watch", "", "\";\"-separated directories to watch for new documents")
		watchOut  = flag.String("watch-out", "", "output directory for watched extractions")
	)
	flag.Parse()

	cfg := config.Load()
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, driver, err := store.Open(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := store.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to prepare database", "error", err)
		os.Exit(1)
	}
	st := store.New(db, driver, logger)

	var engine ocr.Engine
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
	extractor := extract.New(extract.Config{
		Pdftotext: cfg.Extract.Pdftotext,
		Pdftoppm:  cfg.Extract.Pdftoppm,
		Antiword:  cfg.Extract.Antiword,
		DPI:       cfg.OCR.DPI,
		MaxPages:  cfg.Extract.MaxPages,
		Lang:      textproc.LangFilter{Allow: textproc.ParseLangList(cfg.Extract.Languages)},
	}, nil, engine, logger)

	staging, err := localfs.New(cfg.Server.StagingDir)
	if err != nil {
		logger.Error("failed to prepare staging dir", "error", err)
		os.Exit(1)
	}

	if *watchDirs != "" {
		go runWatcher(ctx, *watchDirs, *watchOut, extractor, st, logger)
	}

	exporter := export.NewService(st.Files, st.Jobs, logger)
	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, extractor, st, exporter, staging, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// runWatcher funnels watcher events through the batch processor one file at
// a time.
func runWatcher(ctx context.Context, dirs, outDir string, extractor extract.TextExtractor, st *store.Store, logger *slog.Logger) {
	roots := strings.Split(dirs, ";")
	events, errs, err := watch.Start(ctx, watch.Config{
		Roots:       roots,
		InitialScan: true,
		Debounce:    2 * time.Second,
		AllowedExts: constants.SupportedExtensions(),
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		return
	}
	logger.Info("watching for documents", "roots", roots)

	processor := batch.NewProcessor(extractor, st, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Error("watch error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return
			}
			_, stats, err := processor.Run(ctx, []string{path}, batch.Options{
				OutputDir:  outDir,
				Extensions: constants.SupportedExtensions(),
				Clean:      textproc.Options{Lowercase: true},
			})
			if err != nil {
				logger.Error("failed to process watched file", "path", path, "error", err)
				continue
			}
			logger.Info("processed watched file", "path", path,
				"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated)
		}
	}
}
