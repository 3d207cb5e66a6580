package export

import (
    "bytes"
    "context"
    "fmt"
    "image"
    "io"
    "os"
    "path/filepath"
    "strings"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfpreview/internal/imagerender"
    "github.com/local/pdfpreview/internal/metrics"
    "github.com/local/pdfpreview/internal/storage"
)

const folderPrefix = "pdf_preview_images_"

// Uploader mirrors an exported file to object storage.
type Uploader interface {
    Upload(ctx context.Context, key string, body io.Reader, contentType string) error
}

// Exporter writes preview pages to disk and optionally mirrors them.
type Exporter struct {
    Root         string   // parent of the per-document folders; "." when empty
    Mirror   Uploader         // optional
    MirrorTo storage.Location // bucket and key prefix Mirror writes under
}

// Result describes one exported document.
type Result struct {
    Dir      string
    Files    []string
    Mirrored []string
}

// FolderName returns the output folder name for a document file name.
func FolderName(docName string) string {
    base := filepath.Base(docName)
    return folderPrefix + strings.TrimSuffix(base, filepath.Ext(base))
}

// FileName returns the file name for the 0-based selection position.
func FileName(position int) string { return fmt.Sprintf("page_%d.png", position+1) }

// Export writes pages as page_1.png … page_N.png into the document's folder
// under Root. An existing folder is removed first so stale pages never survive.
func (e *Exporter) Export(ctx context.Context, docName string, pages []image.Image) (*Result, error) {
    root := e.Root
    if root == "" { root = "." }
    dir := filepath.Join(root, FolderName(docName))

    if err := os.RemoveAll(dir); err != nil {
        return nil, fmt.Errorf("failed to clear output directory %s: %w", dir, err)
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
    }

    res := &Result{Dir: dir}
    target := e.MirrorTo.Join(filepath.Base(dir))
    for i, img := range pages {
        var buf bytes.Buffer
        if err := imagerender.EncodePNG(&buf, img); err != nil {
            return res, fmt.Errorf("page %d: %w", i+1, err)
        }
        p := filepath.Join(dir, FileName(i))
        if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
            return res, fmt.Errorf("failed to write %s: %w", p, err)
        }
        res.Files = append(res.Files, p)

        if e.Mirror != nil {
            key := target.Join(FileName(i)).Key
            if err := e.Mirror.Upload(ctx, key, bytes.NewReader(buf.Bytes()), "image/png"); err != nil {
                return res, fmt.Errorf("failed to mirror %s: %w", key, err)
            }
            res.Mirrored = append(res.Mirrored, key)
        }
    }
    metrics.AddExported(len(res.Files))
    if len(res.Mirrored) > 0 {
        log.Info().Str("mirror", target.String()).Int("pages", len(res.Mirrored)).Msg("preview images mirrored")
    }

    log.Info().Str("dir", dir).Int("pages", len(res.Files)).Int("mirrored", len(res.Mirrored)).Msg("preview images saved")
    return res, nil
}
