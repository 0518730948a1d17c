package handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/internal/candidate/service"
	"github.com/talentvault/talentvault-backend/pkg/errors"
	"github.com/talentvault/talentvault-backend/pkg/httputil"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

// multipartMemory is how much of a form is buffered in memory before
// spilling to temp files
const multipartMemory = 8 << 20

// CandidateService is what the handler needs from the service layer
type CandidateService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*service.UploadResult, error)
	GetByID(ctx context.Context, id int64) (*domain.Candidate, error)
	List(ctx context.Context, page, size int) (*domain.Page, error)
	Search(ctx context.Context, q string) ([]*domain.Candidate, error)
	OpenUpload(ctx context.Context, name string) (io.ReadCloser, error)
}

// CandidateHandler handles resume upload and candidate endpoints
type CandidateHandler struct {
	service       CandidateService
	maxUploadSize int64
	logger        *logger.Logger
}

// NewCandidateHandler creates a new candidate handler
func NewCandidateHandler(svc CandidateService, maxUploadSize int64, log *logger.Logger) *CandidateHandler {
	return &CandidateHandler{
		service:       svc,
		maxUploadSize: maxUploadSize,
		logger:        log,
	}
}

// RegisterRoutes mounts the candidate endpoints on r
func (h *CandidateHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Get("/candidates", h.List)
	r.Get("/candidates/{id}", h.Get)
	r.Get("/search", h.Search)
	r.Get("/uploads/{filename}", h.ServeUpload)
}

// CandidateResponse is the public view of a candidate; raw_text is never exposed
type CandidateResponse struct {
	ID             int64           `json:"id"`
	Name           *string         `json:"name"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Location       *string         `json:"location"`
	Skills         domain.SkillSet `json:"skills"`
	Summary        string          `json:"summary"`
	EducationText  string          `json:"education_text"`
	ExperienceText string          `json:"experience_text"`
	SourceFilename string          `json:"source_filename"`
	CreatedAt      string          `json:"created_at"`
}

// NewCandidateResponse serialises c with created_at at second precision
func NewCandidateResponse(c *domain.Candidate) CandidateResponse {
	skills := c.Skills
	if skills.Matched == nil {
		skills.Matched = []string{}
	}
	return CandidateResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Location:       c.Location,
		Skills:         skills,
		Summary:        c.Summary,
		EducationText:  c.EducationText,
		ExperienceText: c.ExperienceText,
		SourceFilename: c.SourceFilename,
		CreatedAt:      c.CreatedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
	}
}

func newCandidateResponses(cs []*domain.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewCandidateResponse(c))
	}
	return out
}

// UploadResponse acknowledges a stored resume
type UploadResponse struct {
	ID       int64    `json:"id"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

// Upload accepts a multipart form with one "file" part
func (h *CandidateHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, errors.PayloadTooLarge(h.maxUploadSize))
			return
		}
		httputil.Error(w, errors.BadRequest("file is required"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a part sent with filename="" is parsed as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			httputil.Error(w, errors.BadRequest("empty filename"))
			return
		}
		httputil.Error(w, errors.BadRequest("file is required"))
		return
	}
	defer file.Close()

	res, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, UploadResponse{
		ID:       res.Candidate.ID,
		Message:  service.UploadMessage,
		Warnings: res.Warnings,
	})
}

type listQuery struct {
	Page int `query:"page" validate:"gte=1"`
	Size int `query:"size" validate:"gte=1"`
}

// List lists candidates newest first. size above 100 is clamped.
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Page: 1, Size: service.DefaultPageSize}
	details := map[string]string{}
	parseIntParam(r, "page", &q.Page, details)
	parseIntParam(r, "size", &q.Size, details)
	if len(details) > 0 {
		httputil.Error(w, errors.Validation(details))
		return
	}
	if err := httputil.Validate(q); err != nil {
		httputil.Error(w, err)
		return
	}

	page, err := h.service.List(r.Context(), q.Page, q.Size)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK,
		newCandidateResponses(page.Candidates),
		httputil.NewMeta(page.Page, page.Size, page.Total),
	)
}

// Get gets a candidate by ID
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.Error(w, errors.NotFound("candidate"))
		return
	}

	cand, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, NewCandidateResponse(cand))
}

// Search finds candidates by substring over their text fields
func (h *CandidateHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newCandidateResponses(results))
}

// ServeUpload streams a stored original
func (h *CandidateHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	rc, err := h.service.OpenUpload(r.Context(), name)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	defer rc.Close()

	if f, ok := rc.(*os.File); ok {
		var modTime time.Time
		if info, err := f.Stat(); err == nil {
			modTime = info.ModTime()
		}
		http.ServeContent(w, r, name, modTime, f)
		return
	}

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn().Err(err).Str("file", name).Msg("failed to stream upload")
	}
}

func parseIntParam(r *http.Request, key string, dst *int, details map[string]string) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		details[key] = "must be an integer"
		return
	}
	*dst = v
}
