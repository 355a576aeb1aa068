package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog/log"
    "github.com/spf13/cobra"

    cfgpkg "github.com/local/doctools/internal/config"
    "github.com/local/doctools/internal/convert"
    "github.com/local/doctools/internal/delivery"
    "github.com/local/doctools/internal/limiter"
    logpkg "github.com/local/doctools/internal/logger"
    "github.com/local/doctools/internal/metrics"
    "github.com/local/doctools/internal/raster"
    "github.com/local/doctools/internal/statuscheck"
    "github.com/local/doctools/internal/toolkit"
    "github.com/local/doctools/internal/web"
)

var version = "dev"

// app carries what every subcommand needs once config is loaded.
type app struct {
    configPath string
    out        string
    cfg        cfgpkg.Config
    runner     *toolkit.Runner
    sink       *delivery.Sink
}

func main() {
    a := &app{}
    root := a.rootCommand()
    if err := root.Execute(); err != nil {
        var f *toolkit.Failure
        if errors.As(err, &f) {
            fmt.Fprintln(os.Stderr, f.Message)
        } else {
            fmt.Fprintln(os.Stderr, err)
        }
        logpkg.Close()
        os.Exit(1)
    }
    logpkg.Close()
}

func (a *app) rootCommand() *cobra.Command {
    root := &cobra.Command{
        Use:           "doctools",
        Short:         "PDF and office document tools",
        SilenceUsage:  true,
        SilenceErrors: true,
        PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
            return a.setup()
        },
    }
    root.PersistentFlags().StringVar(&a.configPath, "config", "", "optional YAML config file")
    root.PersistentFlags().StringVarP(&a.out, "output", "o", ".", "output path, directory or s3://bucket/key")

    root.AddCommand(
        a.mergeCommand(),
        a.splitCommand(),
        a.compressCommand(),
        a.wordToPDFCommand(),
        a.pdfToWordCommand(),
        a.pdfToJPGCommand(),
        a.jpgToPDFCommand(),
        a.serveCommand(),
        &cobra.Command{
            Use:   "version",
            Short: "Print the version",
            Run: func(cmd *cobra.Command, _ []string) {
                fmt.Fprintln(cmd.OutOrStdout(), version)
            },
        },
    )
    return root
}

// setup loads config, initialises logging and builds the runner and sink.
func (a *app) setup() error {
    cfg, err := cfgpkg.Load(a.configPath)
    if err != nil { return err }
    a.cfg = cfg

    if err := logpkg.Init(logpkg.Options{
        Level:        cfg.Logging.Level,
        Pretty:       cfg.Logging.Pretty,
        File:         cfg.Logging.File,
        MaxSizeMB:    cfg.Logging.MaxSizeMB,
        MaxBackups:   cfg.Logging.MaxBackups,
        MaxAgeDays:   cfg.Logging.MaxAgeDays,
        Compress:     cfg.Logging.Compress,
        Console:      os.Stderr,
        SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey:  cfg.Axiom.APIKey,
        AxiomOrgID:   cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush:   cfg.Axiom.FlushInterval,
    }); err != nil {
        return err
    }

    opts := toolkit.Options{
        Raster: raster.Options{Scale: cfg.Render.Scale, Quality: cfg.Render.Quality, Color: raster.ColorRGB},
        Word:   convert.WordOptions{Paginate: cfg.Word.Paginate},
    }
    opts.Compress, err = compressDefaults(cfg.Compress)
    if err != nil { return err }
    if cfg.LibreOffice.Enabled {
        opts.LibreOffice = convert.NewLibreOffice(cfg.LibreOffice.Binary, cfg.LibreOffice.Timeout, 1)
    }
    a.runner = toolkit.New(opts)
    a.sink = delivery.NewSink(a.newS3)
    return nil
}

func (a *app) s3Options() delivery.S3Options {
    s := a.cfg.Delivery.S3
    return delivery.S3Options{
        Bucket:    s.Bucket,
        Prefix:    s.Prefix,
        Region:    s.Region,
        Endpoint:  s.Endpoint,
        AccessKey: s.AccessKey,
        SecretKey: s.SecretKey,
        Password:  s.Password,
    }
}

func (a *app) newS3(ctx context.Context) (*delivery.S3, error) {
    return delivery.NewS3(ctx, a.s3Options())
}

func (a *app) serveCommand() *cobra.Command {
    return &cobra.Command{
        Use:   "serve",
        Short: "Run the HTTP workbench",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            return a.serve(cmd.Context())
        },
    }
}

func (a *app) serve(ctx context.Context) error {
    cfg := a.cfg
    metrics.Init()

    store, err := delivery.OpenStore(cfg.Delivery.Store, cfg.Delivery.RedisURL, cfg.Delivery.TTL)
    if err != nil { return err }
    defer store.Close()

    statusOpts := statuscheck.Options{
        Store:       store,
        StoreKind:   cfg.Delivery.Store,
        LibreOffice: cfg.LibreOffice.Enabled,
        LOBinary:    cfg.LibreOffice.Binary,
    }
    if cfg.Delivery.S3.Bucket != "" {
        s3c, err := a.newS3(ctx)
        if err != nil {
            log.Warn().Err(err).Msg("s3 status check disabled")
        } else {
            statusOpts.S3 = s3c
        }
    }

    wb := web.New(web.Deps{
        Runner:      a.runner,
        Store:       store,
        Gate:        limiter.New(limiter.Options{}),
        Status:      statuscheck.New(statusOpts),
        MaxUploadMB: cfg.Server.MaxUploadMB,
        IdleTTL:     cfg.Server.IdleTTL,
    })
    defer wb.Close()

    stopCleanup := make(chan struct{})
    defer close(stopCleanup)
    if cfg.LibreOffice.Enabled {
        go func() {
            ticker := time.NewTicker(10 * time.Minute)
            defer ticker.Stop()
            for {
                select {
                case <-stopCleanup:
                    return
                case <-ticker.C:
                    if n := convert.CleanupTemps(30 * time.Minute); n > 0 {
                        log.Info().Int("removed", n).Msg("stale libreoffice temp dirs removed")
                    }
                }
            }
        }()
    }

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: wb.Router()}
    errc := make(chan error, 1)
    go func() {
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errc <- err
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    defer signal.Stop(stop)
    select {
    case err := <-errc:
        return fmt.Errorf("http server: %w", err)
    case <-stop:
    }
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    log.Info().Msg("shutdown complete")
    return nil
}
