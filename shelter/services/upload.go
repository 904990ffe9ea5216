package services

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"pawhaven/shelter/auth"
	"pawhaven/shelter/storage"
	"pawhaven/utils"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type UploadService struct {
	auth      *auth.Authenticator
	storage   storage.Storage
	publicUrl string
}

func (s *UploadService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware()...)
		r.Use(checkSufficientStorage(s.storage))

		r.Post("/", s.Upload)
	})

	return r
}

type uploadResponse struct {
	Url      string `json:"url"`
	Filename string `json:"filename"`
}

func (s *UploadService) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "error parsing multipart form, the file may exceed the 10Mib limit")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "missing 'image' file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		utils.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported image type '%v', must be one of: jpg, jpeg, png, gif, webp", ext))
		return
	}

	// Uploads are stored under a generated name so user supplied filenames
	// never touch the filesystem.
	filename := uuid.New().String() + ext
	if err := s.storage.Write(filepath.Join("uploads", filename), file); err != nil {
		slog.Error("error writing uploaded image", "filename", filename, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "error saving uploaded image")
		return
	}

	slog.Info("saved uploaded image", "filename", filename, "size", header.Size)
	utils.WriteData(w, uploadResponse{
		Url:      s.publicUrl + "/uploads/" + filename,
		Filename: filename,
	})
}
