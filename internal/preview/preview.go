// Package preview runs the preview pipeline for one document or a batch:
// resolve the reference, validate it, pick representative pages, render them
// and export the PNG files.
package preview

import (
    "context"
    "errors"
    "fmt"
    "image"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfpreview/internal/export"
    "github.com/local/pdfpreview/internal/filetype"
    "github.com/local/pdfpreview/internal/imagerender"
    "github.com/local/pdfpreview/internal/metrics"
    "github.com/local/pdfpreview/internal/pdfdoc"
    "github.com/local/pdfpreview/internal/selector"
)

// Options controls page selection and rendering.
type Options struct {
    Mode      selector.Mode
    SkipBlank bool // excerpt mode only
    Renderer  imagerender.Renderer
}

// Dependencies are the collaborators of a Service. Nil fields get defaults.
type Dependencies struct {
    Resolver *pdfdoc.Resolver
    Opener   pdfdoc.Opener
    Exporter *export.Exporter
    Validate func(path string) error
    Count    func(path string) (int, error) // optional pre-open page count
}

// Service runs the pipeline.
type Service struct {
    opts Options
    deps Dependencies
}

// New builds a Service.
func New(opts Options, deps Dependencies) *Service {
    if deps.Resolver == nil { deps.Resolver = &pdfdoc.Resolver{} }
    if deps.Opener == nil { deps.Opener = pdfdoc.DefaultOpener() }
    if deps.Exporter == nil { deps.Exporter = &export.Exporter{} }
    if deps.Validate == nil { deps.Validate = filetype.New().RequirePDF }
    if opts.Mode == "" { opts.Mode = selector.ModeSpread }
    return &Service{opts: opts, deps: deps}
}

// Plan is an opened document with its initial selection.
type Plan struct {
    Source    *pdfdoc.Source
    Doc       pdfdoc.Doc
    Total     int
    Selection []int
}

// Close releases the document and any temporary download.
func (p *Plan) Close() {
    if p.Doc != nil {
        _ = p.Doc.Close()
    }
    if p.Source != nil {
        p.Source.Close()
    }
}

// Plan resolves ref, checks it is a non-empty PDF and selects pages.
// The caller must Close the returned plan.
func (s *Service) Plan(ctx context.Context, ref string) (*Plan, error) {
    src, err := s.deps.Resolver.Resolve(ctx, ref)
    if err != nil {
        return nil, fmt.Errorf("resolve %s: %w", ref, err)
    }
    plan := &Plan{Source: src}

    if err := s.deps.Validate(src.Path); err != nil {
        plan.Close()
        return nil, err
    }

    if s.deps.Count != nil {
        n, err := s.deps.Count(src.Path)
        if err != nil {
            plan.Close()
            return nil, err
        }
        if n < 1 {
            plan.Close()
            return nil, &filetype.ValidationError{Path: src.Path, Message: selector.ErrNoPages.Error()}
        }
    }

    doc, err := s.deps.Opener.Open(src.Path)
    if err != nil {
        plan.Close()
        return nil, err
    }
    plan.Doc = doc
    plan.Total = doc.NumPage()

    var blank selector.BlankFunc
    if s.opts.SkipBlank {
        blank = pdfdoc.BlankFunc(doc)
    }
    sel, err := selector.Select(s.opts.Mode, plan.Total, blank)
    if err != nil {
        plan.Close()
        return nil, fmt.Errorf("%s: %w", src.Name, err)
    }
    if len(sel) == 0 {
        plan.Close()
        return nil, &filetype.ValidationError{Path: src.Path, Message: "no page with text to excerpt"}
    }
    plan.Selection = sel

    log.Info().
        Str("pdf", src.Name).
        Int("total_pages", plan.Total).
        Str("mode", string(s.opts.Mode)).
        Ints("selection", sel).
        Msg("pages selected")
    return plan, nil
}

// Render rasterizes the given pages of plan, in order.
func (s *Service) Render(plan *Plan, pages []int) ([]image.Image, error) {
    out := make([]image.Image, 0, len(pages))
    for _, p := range pages {
        img, err := s.opts.Renderer.Page(plan.Doc, p)
        if err != nil {
            return nil, err
        }
        out = append(out, img)
    }
    return out, nil
}

// Export renders pages and writes them to the document's output folder.
func (s *Service) Export(ctx context.Context, plan *Plan, pages []int) (*export.Result, error) {
    imgs, err := s.Render(plan, pages)
    if err != nil {
        return nil, err
    }
    return s.Save(ctx, plan, imgs)
}

// Save writes already rendered pages to the document's output folder.
func (s *Service) Save(ctx context.Context, plan *Plan, imgs []image.Image) (*export.Result, error) {
    return s.deps.Exporter.Export(ctx, plan.Source.Name, imgs)
}

// Result is the outcome of processing one document.
type Result struct {
    Ref       string
    Selection []int
    Export    *export.Result
    Duration  time.Duration
    Err       error
}

// Process runs the full pipeline for one document.
func (s *Service) Process(ctx context.Context, ref string) Result {
    start := time.Now()
    res := Result{Ref: ref}

    plan, err := s.Plan(ctx, ref)
    if err == nil {
        res.Selection = plan.Selection
        res.Export, err = s.Export(ctx, plan, plan.Selection)
        plan.Close()
    }
    res.Duration = time.Since(start)
    res.Err = err

    metrics.IncDocument(Classify(err))
    if err != nil {
        log.Error().Err(err).Str("pdf", ref).Msg("preview failed")
    }
    return res
}

// ProcessAll processes refs one after another. A failing document is
// recorded in its Result and does not stop the rest of the batch.
func (s *Service) ProcessAll(ctx context.Context, refs []string) []Result {
    results := make([]Result, 0, len(refs))
    for _, ref := range refs {
        if err := ctx.Err(); err != nil {
            results = append(results, Result{Ref: ref, Err: err})
            continue
        }
        results = append(results, s.Process(ctx, ref))
    }
    return results
}

// Classify maps an error to the metrics result label.
func Classify(err error) string {
    var verr *filetype.ValidationError
    switch {
    case err == nil:
        return "success"
    case errors.As(err, &verr), errors.Is(err, selector.ErrNoPages):
        return "invalid"
    default:
        return "failed"
    }
}
