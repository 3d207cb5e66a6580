package pdfdoc

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "os"
    "path"
    "path/filepath"
    "sort"
    "strings"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfpreview/internal/storage"
)

// ObjectFetcher downloads an object from a bucket into a local temp file.
type ObjectFetcher interface {
    DownloadToTemp(ctx context.Context, key string) (string, error)
}

// Resolver turns document references into local files.
// Supports:
// - file://path or absolute/relative filesystem paths
// - http(s):// URLs (downloads to temp)
// - s3://bucket/key (downloads to temp via S3)
type Resolver struct {
    Client *http.Client
    S3     func(ctx context.Context, bucket string) (ObjectFetcher, error)
}

// Source is a resolved document reference.
type Source struct {
    Ref  string // as given by the caller
    Path string // local filesystem path
    Name string // file name used to label outputs

    temp string
}

// Close removes any temporary download.
func (s *Source) Close() {
    if s.temp != "" {
        os.Remove(s.temp)
        s.temp = ""
    }
}

// Resolve returns a local Source for ref. A #fragment is dropped from URL
// references only; '#' is a legal character in file names.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Source, error) {
    src := &Source{Ref: ref}

    switch {
    case strings.HasPrefix(ref, "s3://"):
        loc, err := storage.ParseURL(stripFragment(ref))
        if err != nil { return nil, err }
        if loc.Key == "" { return nil, fmt.Errorf("invalid s3 url: %s", ref) }
        if r.S3 == nil { return nil, fmt.Errorf("s3 references are not configured: %s", ref) }
        fetcher, err := r.S3(ctx, loc.Bucket)
        if err != nil { return nil, err }
        p, err := fetcher.DownloadToTemp(ctx, loc.Key)
        if err != nil { return nil, err }
        src.Path, src.temp, src.Name = p, p, path.Base(loc.Key)
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        clean := stripFragment(ref)
        p, err := r.downloadHTTP(ctx, clean)
        if err != nil { return nil, err }
        src.Path, src.temp = p, p
        src.Name = "document.pdf"
        if u, err := url.Parse(clean); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
            src.Name = path.Base(u.Path)
        }
    case strings.HasPrefix(ref, "file://"):
        u, err := url.Parse(ref)
        if err != nil { return nil, fmt.Errorf("invalid file url %s: %w", ref, err) }
        if u.Host != "" && u.Host != "localhost" { return nil, fmt.Errorf("file url with remote host: %s", ref) }
        if u.Path == "" { return nil, fmt.Errorf("file url without path: %s", ref) }
        src.Path = filepath.FromSlash(u.Path)
        src.Name = filepath.Base(src.Path)
    default:
        src.Path = ref
        src.Name = filepath.Base(ref)
    }
    return src, nil
}

func stripFragment(ref string) string {
    if i := strings.Index(ref, "#"); i >= 0 {
        return ref[:i]
    }
    return ref
}

func (r *Resolver) downloadHTTP(ctx context.Context, rawURL string) (string, error) {
    client := r.Client
    if client == nil { client = http.DefaultClient }
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
    if err != nil { return "", err }
    resp, err := client.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK { return "", fmt.Errorf("download %s: http %d", rawURL, resp.StatusCode) }
    f, err := os.CreateTemp("", "pdfdl-*.pdf")
    if err != nil { return "", err }
    defer f.Close()
    if _, err := io.Copy(f, resp.Body); err != nil {
        os.Remove(f.Name())
        return "", err
    }
    log.Debug().Str("url", rawURL).Str("file", f.Name()).Msg("downloaded pdf to temp")
    return f.Name(), nil
}

// Discover finds all PDF files in dir. The search is case-insensitive, does not
// recurse, and returns paths sorted by name.
func Discover(dir string) ([]string, error) {
    entries, err := os.ReadDir(dir)
    if err != nil {
        return nil, fmt.Errorf("could not read directory %s: %w", dir, err)
    }
    var out []string
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
            out = append(out, filepath.Join(dir, e.Name()))
        }
    }
    sort.Strings(out)
    return out, nil
}
