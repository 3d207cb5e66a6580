package web

import (
    "bytes"
    "context"
    "crypto/subtle"
    "embed"
    "fmt"
    "html/template"
    "image"
    "net/http"
    "sort"
    "strconv"
    "sync"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pdfpreview/internal/config"
    "github.com/local/pdfpreview/internal/export"
    "github.com/local/pdfpreview/internal/imagerender"
    "github.com/local/pdfpreview/internal/metrics"
    "github.com/local/pdfpreview/internal/picker"
    "github.com/local/pdfpreview/internal/preview"
)

//go:embed templates/*.html
var templateFS embed.FS

// Previewer is the part of the preview pipeline the picker drives.
type Previewer interface {
    Plan(ctx context.Context, ref string) (*preview.Plan, error)
    Render(plan *preview.Plan, pages []int) ([]image.Image, error)
    Save(ctx context.Context, plan *preview.Plan, imgs []image.Image) (*export.Result, error)
}

// Session is one document open in the picker.
type Session struct {
    ID   string
    Name string

    mu     sync.Mutex
    plan   *preview.Plan
    slots  *picker.Slots
    pages  map[int]image.Image
    thumbs map[int][]byte
    saved  *export.Result
}

type Web struct {
    tpl      *template.Template
    svc      Previewer
    username string
    password string
    token    string
    thumbW   int
    thumbH   int

    mu       sync.RWMutex
    sessions map[string]*Session
    order    []string
}

func New(svc Previewer, cfg config.WebConfig, thumbW, thumbH int) *Web {
    tpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
    if thumbW <= 0 { thumbW = 120 }
    if thumbH <= 0 { thumbH = 160 }
    return &Web{
        tpl:      tpl,
        svc:      svc,
        username: cfg.Username,
        password: cfg.Password,
        token:    uuid.NewString(),
        thumbW:   thumbW,
        thumbH:   thumbH,
        sessions: map[string]*Session{},
    }
}

// Open plans ref and adds it as a picker session.
func (w *Web) Open(ctx context.Context, ref string) (*Session, error) {
    plan, err := w.svc.Plan(ctx, ref)
    if err != nil {
        return nil, err
    }
    slots, err := picker.New(plan.Total, plan.Selection)
    if err != nil {
        plan.Close()
        return nil, err
    }
    s := &Session{
        ID:     uuid.NewString(),
        Name:   plan.Source.Name,
        plan:   plan,
        slots:  slots,
        pages:  map[int]image.Image{},
        thumbs: map[int][]byte{},
    }
    w.mu.Lock()
    w.sessions[s.ID] = s
    w.order = append(w.order, s.ID)
    w.mu.Unlock()
    log.Info().Str("session", s.ID).Str("pdf", s.Name).Int("total_pages", plan.Total).Msg("picker session opened")
    return s, nil
}

// Sessions returns the open sessions in the order they were opened.
func (w *Web) Sessions() []*Session {
    w.mu.RLock()
    defer w.mu.RUnlock()
    out := make([]*Session, 0, len(w.order))
    for _, id := range w.order {
        out = append(out, w.sessions[id])
    }
    return out
}

// Close releases every open document.
func (w *Web) Close() {
    w.mu.Lock()
    defer w.mu.Unlock()
    for _, s := range w.sessions {
        s.mu.Lock()
        s.plan.Close()
        s.mu.Unlock()
    }
    w.sessions = map[string]*Session{}
    w.order = nil
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("GET /health", func(wr http.ResponseWriter, r *http.Request) { wr.WriteHeader(http.StatusOK); _, _ = wr.Write([]byte("ok")) })
    mux.HandleFunc("/web/login", w.handleLogin)
    mux.HandleFunc("/web/logout", w.handleLogout)
    mux.HandleFunc("GET /{$}", w.requireAuth(w.handleIndex))
    mux.HandleFunc("GET /session/{id}", w.requireAuth(w.handleSession))
    mux.HandleFunc("GET /session/{id}/thumb/{slot}", w.requireAuth(w.handleThumb))
    mux.HandleFunc("POST /session/{id}/advance/{slot}", w.requireAuth(w.handleAdvance))
    mux.HandleFunc("POST /session/{id}/confirm", w.requireAuth(w.handleConfirm))
}

func (w *Web) render(wr http.ResponseWriter, status int, name string, data any) {
    var buf bytes.Buffer
    if err := w.tpl.ExecuteTemplate(&buf, name, data); err != nil {
        log.Error().Err(err).Str("template", name).Msg("template render failed")
        http.Error(wr, "template error", http.StatusInternalServerError)
        return
    }
    wr.Header().Set("Content-Type", "text/html; charset=utf-8")
    wr.WriteHeader(status)
    _, _ = wr.Write(buf.Bytes())
}

func (w *Web) authEnabled() bool { return w.username != "" && w.password != "" }

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        if w.authEnabled() {
            c, err := r.Cookie("auth")
            if err != nil || c.Value != w.token {
                http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
                return
            }
        }
        next(wr, r)
    }
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
    if !w.authEnabled() {
        http.Redirect(wr, r, "/", http.StatusSeeOther)
        return
    }
    switch r.Method {
    case http.MethodGet:
        w.render(wr, http.StatusOK, "login.html", map[string]any{"Title": "Sign in", "Error": r.URL.Query().Get("error")})
    case http.MethodPost:
        if err := r.ParseForm(); err != nil { http.Redirect(wr, r, "/web/login?error=invalid+form", http.StatusSeeOther); return }
        if w.validCredentials(r.Form.Get("username"), r.Form.Get("password")) {
            http.SetCookie(wr, &http.Cookie{Name: "auth", Value: w.token, Path: "/", HttpOnly: true, SameSite: http.SameSiteStrictMode})
            http.Redirect(wr, r, "/", http.StatusSeeOther)
            return
        }
        http.Redirect(wr, r, "/web/login?error=invalid+credentials", http.StatusSeeOther)
    default:
        wr.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (w *Web) validCredentials(user, pass string) bool {
    userOK := subtle.ConstantTimeCompare([]byte(user), []byte(w.username))
    passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(w.password))
    return userOK&passOK == 1
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
    http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
    http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
}

type sessionRow struct {
    ID    string
    Name  string
    Total int
    Saved bool
}

func (w *Web) handleIndex(wr http.ResponseWriter, r *http.Request) {
    var rows []sessionRow
    for _, s := range w.Sessions() {
        s.mu.Lock()
        rows = append(rows, sessionRow{ID: s.ID, Name: s.Name, Total: s.slots.Total(), Saved: s.saved != nil})
        s.mu.Unlock()
    }
    sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
    w.render(wr, http.StatusOK, "index.html", map[string]any{"Sessions": rows})
}

type slotView struct {
    Slot       int
    Page       int
    PageNumber int
}

func (w *Web) handleSession(wr http.ResponseWriter, r *http.Request) {
    s := w.lookup(wr, r)
    if s == nil { return }
    s.mu.Lock()
    views := make([]slotView, 0, s.slots.Len())
    for i, p := range s.slots.Selection() {
        views = append(views, slotView{Slot: i, Page: p, PageNumber: p + 1})
    }
    total := s.slots.Total()
    s.mu.Unlock()
    w.render(wr, http.StatusOK, "session.html", map[string]any{
        "Title": s.Name, "ID": s.ID, "Name": s.Name, "Total": total, "Slots": views,
    })
}

func (w *Web) handleThumb(wr http.ResponseWriter, r *http.Request) {
    s := w.lookup(wr, r)
    if s == nil { return }
    slot, err := strconv.Atoi(r.PathValue("slot"))
    if err != nil { http.Error(wr, "invalid slot", http.StatusBadRequest); return }

    s.mu.Lock()
    defer s.mu.Unlock()
    page, err := s.slots.Page(slot)
    if err != nil { http.Error(wr, err.Error(), http.StatusNotFound); return }
    data, err := w.thumbnail(s, page)
    if err != nil {
        log.Error().Err(err).Str("session", s.ID).Int("page", page+1).Msg("thumbnail failed")
        http.Error(wr, "render failed", http.StatusInternalServerError)
        return
    }
    wr.Header().Set("Content-Type", "image/png")
    wr.Header().Set("Cache-Control", "no-store")
    _, _ = wr.Write(data)
}

func (w *Web) handleAdvance(wr http.ResponseWriter, r *http.Request) {
    s := w.lookup(wr, r)
    if s == nil { return }
    slot, err := strconv.Atoi(r.PathValue("slot"))
    if err != nil { http.Error(wr, "invalid slot", http.StatusBadRequest); return }

    s.mu.Lock()
    page, err := s.slots.Advance(slot)
    s.mu.Unlock()
    if err != nil { http.Error(wr, err.Error(), http.StatusNotFound); return }
    metrics.IncSlotAdvance()
    log.Debug().Str("session", s.ID).Int("slot", slot).Int("page", page+1).Msg("slot advanced")
    http.Redirect(wr, r, "/session/"+s.ID, http.StatusSeeOther)
}

func (w *Web) handleConfirm(wr http.ResponseWriter, r *http.Request) {
    s := w.lookup(wr, r)
    if s == nil { return }

    s.mu.Lock()
    res, err := w.save(r.Context(), s)
    s.mu.Unlock()

    data := map[string]any{"ID": s.ID}
    if err != nil {
        metrics.IncDocument(preview.Classify(err))
        log.Error().Err(err).Str("session", s.ID).Msg("saving preview images failed")
        data["Title"], data["Failed"], data["Message"] = "Failed", true, fmt.Sprintf("Failed to save images: %v", err)
        w.render(wr, http.StatusInternalServerError, "result.html", data)
        return
    }
    metrics.IncDocument("success")
    data["Title"], data["Message"] = "Success", fmt.Sprintf("Images saved to %s", res.Dir)
    w.render(wr, http.StatusOK, "result.html", data)
}

// save exports the session's current selection. Callers hold s.mu.
func (w *Web) save(ctx context.Context, s *Session) (*export.Result, error) {
    sel := s.slots.Selection()
    imgs := make([]image.Image, 0, len(sel))
    for _, p := range sel {
        img, err := w.page(s, p)
        if err != nil { return nil, err }
        imgs = append(imgs, img)
    }
    res, err := w.svc.Save(ctx, s.plan, imgs)
    if err != nil { return nil, err }
    s.saved = res
    return res, nil
}

// page returns the rendered page, rendering it on first use. Callers hold s.mu.
func (w *Web) page(s *Session, page int) (image.Image, error) {
    if img, ok := s.pages[page]; ok {
        return img, nil
    }
    imgs, err := w.svc.Render(s.plan, []int{page})
    if err != nil { return nil, err }
    s.pages[page] = imgs[0]
    return imgs[0], nil
}

// thumbnail returns the PNG thumbnail of page. Callers hold s.mu.
func (w *Web) thumbnail(s *Session, page int) ([]byte, error) {
    if data, ok := s.thumbs[page]; ok {
        return data, nil
    }
    img, err := w.page(s, page)
    if err != nil { return nil, err }
    var buf bytes.Buffer
    if err := imagerender.EncodePNG(&buf, imagerender.Thumbnail(img, w.thumbW, w.thumbH)); err != nil {
        return nil, err
    }
    s.thumbs[page] = buf.Bytes()
    return buf.Bytes(), nil
}

func (w *Web) lookup(wr http.ResponseWriter, r *http.Request) *Session {
    w.mu.RLock()
    s := w.sessions[r.PathValue("id")]
    w.mu.RUnlock()
    if s == nil {
        http.NotFound(wr, r)
    }
    return s
}
