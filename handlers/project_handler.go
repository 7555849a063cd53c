package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ideahub/microservices/projects-service/logging"
	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/services"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadSize      = 10 << 20
)

type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

type projectRequest struct {
	Name             string                   `json:"name" validate:"required"`
	Description      string                   `json:"description"`
	JoinLink         string                   `json:"joinLink" validate:"omitempty,url"`
	Tags             listInput                `json:"tags"`
	RequiredTalents  listInput                `json:"requiredTalents"`
	Phase            string                   `json:"phase"`
	Team             []models.TeamMember      `json:"team" validate:"dive"`
	CoverImage       string                   `json:"coverImage" validate:"omitempty,url"`
	Images           []string                 `json:"images" validate:"omitempty,dive,url"`
	FinancialHistory []models.FinancialRecord `json:"financialHistory" validate:"dive"`
}

func (req projectRequest) form() services.ProjectForm {
	return services.ProjectForm{
		Name:             req.Name,
		Description:      req.Description,
		JoinLink:         req.JoinLink,
		Tags:             string(req.Tags),
		RequiredTalents:  string(req.RequiredTalents),
		Phase:            models.Phase(req.Phase),
		Team:             req.Team,
		CoverImage:       req.CoverImage,
		Images:           req.Images,
		FinancialHistory: req.FinancialHistory,
	}
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content" validate:"required"`
}

type ideaRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type financialRequest struct {
	Amount      *float64  `json:"amount" validate:"required,gte=0"`
	IsProfit    bool      `json:"isProfit"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// CreateProject accepts either JSON or a multipart form carrying image files.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	h.saveProject(w, r, "")
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	h.saveProject(w, r, mux.Vars(r)["id"])
}

func (h *ProjectHandler) saveProject(w http.ResponseWriter, r *http.Request, editingID string) {
	var form services.ProjectForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		parsed, err := parseProjectMultipart(r)
		if err != nil {
			logging.Logger.Warnf("Event ID: PROJECT_FORM_INVALID, Description: %v", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		form = parsed
	} else {
		var req projectRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		form = req.form()
	}

	project, err := h.service.SaveProject(r.Context(), editingID, form)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if editingID == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, project)
}

// parseProjectMultipart reads the admin form: plain fields, team and
// financialHistory as JSON strings, a coverImage file and any number of
// images files.
func parseProjectMultipart(r *http.Request) (services.ProjectForm, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.ProjectForm{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	form := services.ProjectForm{
		Name:            r.FormValue("name"),
		Description:     r.FormValue("description"),
		JoinLink:        r.FormValue("joinLink"),
		Tags:            r.FormValue("tags"),
		RequiredTalents: r.FormValue("requiredTalents"),
		Phase:           models.Phase(r.FormValue("phase")),
		CoverImage:      r.FormValue("coverImageUrl"),
	}
	if raw := r.FormValue("team"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.Team); err != nil {
			return services.ProjectForm{}, fmt.Errorf("invalid team: %w", err)
		}
		if err := validate.Var(form.Team, "dive"); err != nil {
			return services.ProjectForm{}, errors.New(validationMessage(err))
		}
	}
	if raw := r.FormValue("financialHistory"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.FinancialHistory); err != nil {
			return services.ProjectForm{}, fmt.Errorf("invalid financialHistory: %w", err)
		}
	}

	if headers := r.MultipartForm.File["coverImage"]; len(headers) > 0 {
		file, err := readFile(headers[0])
		if err != nil {
			return services.ProjectForm{}, err
		}
		form.CoverImageFile = &file
	}
	for _, header := range r.MultipartForm.File["images"] {
		file, err := readFile(header)
		if err != nil {
			return services.ProjectForm{}, err
		}
		form.ImageFiles = append(form.ImageFiles, file)
	}
	return form, nil
}

func readFile(header *multipart.FileHeader) (services.ImageFile, error) {
	if header.Size > maxUploadSize {
		return services.ImageFile{}, fmt.Errorf("%s exceeds the %d MB limit", header.Filename, maxUploadSize>>20)
	}
	f, err := header.Open()
	if err != nil {
		return services.ImageFile{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return services.ImageFile{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return services.ImageFile{Filename: header.Filename, Data: data}, nil
}

// UploadImage stores a single multipart "file" and returns its URL.
func (h *ProjectHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	file, err := readFile(headers[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	url, err := h.service.UploadImage(r.Context(), file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *ProjectHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.RequestDelete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"token": token})
}

// DeleteProject removes the project once the confirmation token from
// RequestDelete is presented.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.ConfirmDelete(r.Context(), id, r.URL.Query().Get("token")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.service.AddComment(r.Context(), mux.Vars(r)["id"], req.Author, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *ProjectHandler) AddSuggestedIdea(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	idea, err := h.service.AddSuggestedIdea(r.Context(), mux.Vars(r)["id"], req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (h *ProjectHandler) AddFinancialRecord(w http.ResponseWriter, r *http.Request) {
	var req financialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.service.AddFinancialRecord(r.Context(), mux.Vars(r)["id"], models.FinancialRecord{
		Amount:      *req.Amount,
		IsProfit:    req.IsProfit,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) RemoveFinancialRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, err := h.service.RemoveFinancialRecord(r.Context(), vars["id"], vars["recordId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) TeamOwnership(w http.ResponseWriter, r *http.Request) {
	owners, err := h.service.TeamOwnership(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, owners)
}
