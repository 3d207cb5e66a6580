package main

import (
    "bufio"
    "context"
    "errors"
    "flag"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/disintegration/imaging"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/pdfpreview/internal/config"
    "github.com/local/pdfpreview/internal/candidate"
    "github.com/local/pdfpreview/internal/export"
    "github.com/local/pdfpreview/internal/imagerender"
    logpkg "github.com/local/pdfpreview/internal/logger"
    "github.com/local/pdfpreview/internal/metrics"
    "github.com/local/pdfpreview/internal/pdfdoc"
    "github.com/local/pdfpreview/internal/preview"
    "github.com/local/pdfpreview/internal/selector"
    "github.com/local/pdfpreview/internal/storage"
    "github.com/local/pdfpreview/internal/web"
)

const usage = `usage: pdfpreview <command> [flags] [pdf...]

commands:
  run     export preview pages for each PDF
  serve   open PDFs in the browser picker
  cover   pick a cover image from a list of URLs
`

func main() {
    if len(os.Args) < 2 {
        fmt.Fprint(os.Stderr, usage)
        os.Exit(2)
    }
    cfg := cfgpkg.Load()

    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    metrics.Init()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

    var code int
    switch os.Args[1] {
    case "run":
        code = runCmd(ctx, cfg, os.Args[2:])
    case "serve":
        code = serveCmd(ctx, cfg, os.Args[2:])
    case "cover":
        code = coverCmd(ctx, cfg, os.Args[2:])
    case "-h", "--help", "help":
        fmt.Print(usage)
    default:
        fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
        code = 2
    }
    stop()
    logpkg.Close()
    os.Exit(code)
}

// previewFlags are the flags shared by run and serve.
type previewFlags struct {
    mode      *string
    skipBlank *bool
    out       *string
    dir       *string
}

func addPreviewFlags(fs *flag.FlagSet, cfg cfgpkg.Config) previewFlags {
    return previewFlags{
        mode:      fs.String("mode", cfg.Preview.Mode, "page selection: spread or excerpt"),
        skipBlank: fs.Bool("skip-blank", cfg.Preview.SkipBlank, "excerpt mode: skip pages without text"),
        out:       fs.String("out", cfg.Output.Dir, "directory receiving the preview folders"),
        dir:       fs.String("dir", "", "also process every PDF in this directory"),
    }
}

func (f previewFlags) apply(cfg *cfgpkg.Config) {
    cfg.Preview.Mode = *f.mode
    cfg.Preview.SkipBlank = *f.skipBlank
    cfg.Output.Dir = *f.out
}

// refs returns the positional references plus any PDFs found in -dir.
func (f previewFlags) refs(args []string) ([]string, error) {
    refs := append([]string(nil), args...)
    if *f.dir != "" {
        found, err := pdfdoc.Discover(*f.dir)
        if err != nil { return nil, err }
        refs = append(refs, found...)
    }
    return refs, nil
}

// newService wires the preview pipeline from configuration.
func newService(ctx context.Context, cfg cfgpkg.Config) (*preview.Service, error) {
    mode, err := selector.ParseMode(cfg.Preview.Mode)
    if err != nil { return nil, err }

    s3For := func(ctx context.Context, bucket string) (*storage.S3Client, error) {
        return storage.NewS3Client(ctx, cfg.Storage, bucket)
    }

    exp := &export.Exporter{Root: cfg.Output.Dir}
    if cfg.Output.S3URL != "" {
        loc, err := storage.ParseURL(cfg.Output.S3URL)
        if err != nil { return nil, err }
        client, err := s3For(ctx, loc.Bucket)
        if err != nil { return nil, fmt.Errorf("output mirror: %w", err) }
        exp.Mirror, exp.MirrorTo = client, loc
    }

    resolver := &pdfdoc.Resolver{
        Client: &http.Client{Timeout: cfg.HTTP.Timeout},
        S3: func(ctx context.Context, bucket string) (pdfdoc.ObjectFetcher, error) {
            client, err := s3For(ctx, bucket)
            if err != nil { return nil, err }
            return client, nil
        },
    }

    return preview.New(preview.Options{
        Mode:      mode,
        SkipBlank: cfg.Preview.SkipBlank,
        Renderer: imagerender.Renderer{
            DPI:   cfg.Preview.DPI,
            Color: imagerender.ParseColorMode(cfg.Preview.Color),
        },
    }, preview.Dependencies{
        Resolver: resolver,
        Exporter: exp,
        Count:    pdfdoc.CountPages,
    }), nil
}

func runCmd(ctx context.Context, cfg cfgpkg.Config, args []string) int {
    fs := flag.NewFlagSet("run", flag.ExitOnError)
    pf := addPreviewFlags(fs, cfg)
    _ = fs.Parse(args)
    pf.apply(&cfg)

    refs, err := pf.refs(fs.Args())
    if err != nil {
        log.Error().Err(err).Msg("failed to scan directory")
        return 1
    }
    if len(refs) == 0 {
        fmt.Fprintln(os.Stderr, "run: no PDF given")
        return 2
    }

    svc, err := newService(ctx, cfg)
    if err != nil {
        log.Error().Err(err).Msg("failed to set up preview pipeline")
        return 1
    }

    failed := 0
    for _, res := range svc.ProcessAll(ctx, refs) {
        if res.Err != nil {
            failed++
            fmt.Printf("FAIL %s: %v\n", res.Ref, res.Err)
            continue
        }
        fmt.Printf("ok   %s -> %s %v (%s)\n", res.Ref, res.Export.Dir, pageNumbers(res.Selection), res.Duration.Round(time.Millisecond))
    }
    log.Info().Int("documents", len(refs)).Int("failed", failed).Msg("run finished")
    if failed > 0 { return 1 }
    return 0
}

func serveCmd(ctx context.Context, cfg cfgpkg.Config, args []string) int {
    fs := flag.NewFlagSet("serve", flag.ExitOnError)
    pf := addPreviewFlags(fs, cfg)
    addr := fs.String("addr", cfg.Web.Addr, "listen address")
    _ = fs.Parse(args)
    pf.apply(&cfg)

    refs, err := pf.refs(fs.Args())
    if err != nil {
        log.Error().Err(err).Msg("failed to scan directory")
        return 1
    }
    svc, err := newService(ctx, cfg)
    if err != nil {
        log.Error().Err(err).Msg("failed to set up preview pipeline")
        return 1
    }

    picker := web.New(svc, cfg.Web, cfg.Preview.ThumbWidth, cfg.Preview.ThumbHeight)
    defer picker.Close()
    for _, ref := range refs {
        if _, err := picker.Open(ctx, ref); err != nil {
            metrics.IncDocument(preview.Classify(err))
            log.Error().Err(err).Str("pdf", ref).Msg("failed to open document")
        }
    }

    mux := http.NewServeMux()
    picker.RegisterRoutes(mux)
    mux.Handle("GET /metrics", metrics.Handler())
    srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

    errCh := make(chan error, 1)
    go func(){
        log.Info().Msgf("picker listening on http://%s", *addr)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        if err != nil {
            log.Error().Err(err).Msg("http server error")
            return 1
        }
    case <-ctx.Done():
    }
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    log.Info().Msg("shutdown complete")
    return 0
}

func coverCmd(ctx context.Context, cfg cfgpkg.Config, args []string) int {
    fs := flag.NewFlagSet("cover", flag.ExitOnError)
    urlsFile := fs.String("urls", "", "file with one image URL per line (default: positional args)")
    out := fs.String("out", "cover.png", "output PNG path")
    minW := fs.Int("min-width", cfg.Cover.MinWidth, "minimum image width")
    minH := fs.Int("min-height", cfg.Cover.MinHeight, "minimum image height")
    maxText := fs.Int("max-text", cfg.Cover.MaxText, "reject images with more OCR characters than this (0 disables)")
    _ = fs.Parse(args)

    urls := fs.Args()
    if *urlsFile != "" {
        lines, err := readLines(*urlsFile)
        if err != nil {
            log.Error().Err(err).Msg("failed to read url list")
            return 1
        }
        urls = append(urls, lines...)
    }
    if len(urls) == 0 {
        fmt.Fprintln(os.Stderr, "cover: no URL given")
        return 2
    }

    if *maxText > 0 && !candidate.OCREnabled {
        log.Error().Err(candidate.ErrOCRNotEnabled).Int("max_text", *maxText).Msg("text filter needs OCR")
        return 2
    }

    preds := []candidate.Predicate{candidate.Blacklist(cfg.Cover.Blacklist...), candidate.MinSize(*minW, *minH)}
    if *maxText > 0 {
        preds = append(preds, candidate.MaxText(candidate.NewOCRCounter(cfg.Cover.OCRLanguage), *maxText))
    }
    src := candidate.NewURLSource(&http.Client{Timeout: cfg.HTTP.Timeout}, urls...)

    c, err := candidate.First(ctx, src, candidate.All(preds...))
    if err != nil {
        log.Warn().Err(err).Int("candidates", len(urls)).Msg("no cover image found")
        return 1
    }
    if err := imaging.Save(c.Image, *out); err != nil {
        log.Error().Err(err).Str("path", *out).Msg("failed to save cover")
        return 1
    }
    log.Info().Str("url", c.URL).Str("path", *out).Msg("cover saved")
    return 0
}

func readLines(path string) ([]string, error) {
    f, err := os.Open(path)
    if err != nil { return nil, err }
    defer f.Close()
    var out []string
    sc := bufio.NewScanner(f)
    for sc.Scan() {
        if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
            out = append(out, line)
        }
    }
    return out, sc.Err()
}

func pageNumbers(sel []int) []int {
    out := make([]int, len(sel))
    for i, p := range sel {
        out[i] = p + 1
    }
    return out
}
