package pdfdoc

import (
    "fmt"

    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/rs/zerolog/log"
)

// CountPages returns the number of pages in the PDF at path. pdfcpu reads the
// page tree without rendering anything; files it rejects are counted by opening
// them with the default opener instead.
func CountPages(path string) (int, error) {
    n, err := api.PageCountFile(path)
    if err == nil {
        return n, nil
    }
    log.Debug().Err(err).Str("pdf", path).Msg("pdfcpu page count failed, falling back to renderer")

    d, oerr := Open(path)
    if oerr != nil {
        return 0, fmt.Errorf("pdf page count failed: %w", oerr)
    }
    defer d.Close()
    return d.NumPage(), nil
}
