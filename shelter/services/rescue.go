package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"pawhaven/shelter/auth"
	"pawhaven/shelter/schema"
	"pawhaven/utils"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image used for a promoted dog when the submission carried no photos.
const rescuePlaceholderImage = "/images/rescue-placeholder.jpg"

type RescueService struct {
	db   *gorm.DB
	auth *auth.Authenticator
}

func (s *RescueService) Routes() chi.Router {
	r := chi.NewRouter()

	// Public, but the submitting user is captured when a valid token is
	// attached.
	r.With(s.auth.OptionalVerifier()).Post("/", s.Create)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.AdminMiddleware()...)

		r.Get("/", s.List)
		r.Get("/{submission_id}", s.Get)
		r.Put("/{submission_id}", s.Update)
		r.Delete("/{submission_id}", s.Delete)
	})

	return r
}

type submissionInfo struct {
	Id           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Breed        string     `json:"breed"`
	Gender       string     `json:"gender"`
	Age          string     `json:"age"`
	Size         string     `json:"size"`
	Location     string     `json:"location"`
	Description  string     `json:"description"`
	ContactName  string     `json:"contactName"`
	ContactEmail string     `json:"contactEmail"`
	ContactPhone string     `json:"contactPhone"`
	ImageUrls    []string   `json:"imageUrls"`
	Status       string     `json:"status"`
	UserId       *uuid.UUID `json:"userId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func encodeImageUrls(urls []string) string {
	if len(urls) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		slog.Error("error encoding image urls", "error", err)
		return "[]"
	}
	return string(encoded)
}

func decodeImageUrls(encoded string) []string {
	if encoded == "" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(encoded), &urls); err != nil {
		slog.Error("error decoding image urls", "error", err)
		return []string{}
	}
	return urls
}

func convertToSubmissionInfo(submission *schema.RescueSubmission) submissionInfo {
	return submissionInfo{
		Id:           submission.Id,
		Name:         submission.Name,
		Breed:        submission.Breed,
		Gender:       submission.Gender,
		Age:          submission.Age,
		Size:         submission.Size,
		Location:     submission.Location,
		Description:  submission.Description,
		ContactName:  submission.ContactName,
		ContactEmail: submission.ContactEmail,
		ContactPhone: submission.ContactPhone,
		ImageUrls:    decodeImageUrls(submission.ImageUrls),
		Status:       submission.Status,
		UserId:       submission.UserId,
		CreatedAt:    submission.CreatedAt,
	}
}

type createSubmissionRequest struct {
	Name         string   `json:"name"`
	Breed        string   `json:"breed"`
	Gender       string   `json:"gender" validate:"required,oneof=Male Female"`
	Age          string   `json:"age"`
	Size         string   `json:"size" validate:"required,oneof=Small Medium Large"`
	Location     string   `json:"location" validate:"required"`
	Description  string   `json:"description"`
	ContactName  string   `json:"contactName" validate:"required"`
	ContactEmail string   `json:"contactEmail" validate:"required,email"`
	ContactPhone string   `json:"contactPhone"`
	ImageUrls    []string `json:"imageUrls"`
}

func (s *RescueService) Create(w http.ResponseWriter, r *http.Request) {
	var params createSubmissionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	submission := schema.RescueSubmission{
		Id:           uuid.New(),
		Name:         params.Name,
		Breed:        params.Breed,
		Gender:       params.Gender,
		Age:          params.Age,
		Size:         params.Size,
		Location:     params.Location,
		Description:  params.Description,
		ContactName:  params.ContactName,
		ContactEmail: params.ContactEmail,
		ContactPhone: params.ContactPhone,
		ImageUrls:    encodeImageUrls(params.ImageUrls),
		Status:       schema.RescuePending,
		UserId:       s.auth.OptionalUserId(r),
	}

	result := s.db.Create(&submission)
	if result.Error != nil {
		slog.Error("sql error creating rescue submission", "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error creating rescue submission")
		return
	}

	slog.Info("created rescue submission", "submission_id", submission.Id)
	utils.WriteData(w, convertToSubmissionInfo(&submission))
}

func (s *RescueService) List(w http.ResponseWriter, r *http.Request) {
	query := s.db.Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var submissions []schema.RescueSubmission
	result := query.Find(&submissions)
	if result.Error != nil {
		slog.Error("sql error listing rescue submissions", "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error listing rescue submissions")
		return
	}

	infos := make([]submissionInfo, 0, len(submissions))
	for _, submission := range submissions {
		infos = append(infos, convertToSubmissionInfo(&submission))
	}
	utils.WriteData(w, infos)
}

func (s *RescueService) Get(w http.ResponseWriter, r *http.Request) {
	submissionId, err := utils.URLParamUUID(r, "submission_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	submission, err := schema.GetSubmission(submissionId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrSubmissionNotFound) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "error getting rescue submission")
		return
	}

	utils.WriteData(w, convertToSubmissionInfo(&submission))
}

type updateSubmissionRequest struct {
	Name         *string   `json:"name"`
	Breed        *string   `json:"breed"`
	Gender       *string   `json:"gender" validate:"omitempty,oneof=Male Female"`
	Age          *string   `json:"age"`
	Size         *string   `json:"size" validate:"omitempty,oneof=Small Medium Large"`
	Location     *string   `json:"location" validate:"omitempty,min=1"`
	Description  *string   `json:"description"`
	ContactName  *string   `json:"contactName" validate:"omitempty,min=1"`
	ContactEmail *string   `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone *string   `json:"contactPhone"`
	ImageUrls    *[]string `json:"imageUrls"`
	Status       *string   `json:"status" validate:"omitempty,oneof=pending processing rescued closed"`
}

func (s *RescueService) Update(w http.ResponseWriter, r *http.Request) {
	submissionId, err := utils.URLParamUUID(r, "submission_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var params updateSubmissionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	var submission schema.RescueSubmission
	var promoted bool
	err = s.db.Transaction(func(txn *gorm.DB) error {
		submission, err = schema.GetSubmission(submissionId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrSubmissionNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		prevStatus := submission.Status

		if params.Name != nil {
			submission.Name = *params.Name
		}
		if params.Breed != nil {
			submission.Breed = *params.Breed
		}
		if params.Gender != nil {
			submission.Gender = *params.Gender
		}
		if params.Age != nil {
			submission.Age = *params.Age
		}
		if params.Size != nil {
			submission.Size = *params.Size
		}
		if params.Location != nil {
			submission.Location = *params.Location
		}
		if params.Description != nil {
			submission.Description = *params.Description
		}
		if params.ContactName != nil {
			submission.ContactName = *params.ContactName
		}
		if params.ContactEmail != nil {
			submission.ContactEmail = *params.ContactEmail
		}
		if params.ContactPhone != nil {
			submission.ContactPhone = *params.ContactPhone
		}
		if params.ImageUrls != nil {
			submission.ImageUrls = encodeImageUrls(*params.ImageUrls)
		}
		if params.Status != nil {
			submission.Status = *params.Status
		}

		// A dog is synthesized only on the first transition into
		// `rescued`; repeating the update is a no-op for promotion.
		promoted = prevStatus != schema.RescueRescued && submission.Status == schema.RescueRescued

		result := txn.Save(&submission)
		if result.Error != nil {
			slog.Error("sql error updating rescue submission", "submission_id", submissionId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error updating rescue submission: %v", err))
		return
	}

	// The dog insert is deliberately outside the status transaction: a
	// failure here is logged but the submission stays `rescued` and the
	// caller still gets a success response.
	if promoted {
		if err := s.promoteToDog(&submission); err != nil {
			slog.Error("error creating dog from rescued submission", "submission_id", submission.Id, "error", err)
		}
	}

	utils.WriteData(w, convertToSubmissionInfo(&submission))
}

func (s *RescueService) promoteToDog(submission *schema.RescueSubmission) error {
	name := submission.Name
	if name == "" {
		name = "Rescued Friend"
	}
	breed := submission.Breed
	if breed == "" {
		breed = "Mixed Breed"
	}

	image := rescuePlaceholderImage
	if urls := decodeImageUrls(submission.ImageUrls); len(urls) > 0 {
		image = urls[0]
	}

	description := strings.TrimSpace(fmt.Sprintf(
		"%v This dog was rescued from %v and is looking for a loving home.",
		submission.Description, submission.Location,
	))

	dog := schema.Dog{
		Id:          uuid.New(),
		Name:        name,
		Breed:       breed,
		Age:         submission.Age,
		Size:        submission.Size,
		Gender:      submission.Gender,
		Image:       image,
		Description: description,
		Tags:        "Rescue,Needs Home",
		Status:      schema.DogAvailable,
		RescueId:    &submission.Id,
	}

	result := s.db.Create(&dog)
	if result.Error != nil {
		slog.Error("sql error creating dog from rescue submission", "submission_id", submission.Id, "error", result.Error)
		return schema.ErrDbAccessFailed
	}

	slog.Info("promoted rescue submission to dog", "submission_id", submission.Id, "dog_id", dog.Id)
	return nil
}

func (s *RescueService) Delete(w http.ResponseWriter, r *http.Request) {
	submissionId, err := utils.URLParamUUID(r, "submission_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetSubmission(submissionId, txn); err != nil {
			if errors.Is(err, schema.ErrSubmissionNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Delete(&schema.RescueSubmission{Id: submissionId})
		if result.Error != nil {
			slog.Error("sql error deleting rescue submission", "submission_id", submissionId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error deleting rescue submission: %v", err))
		return
	}

	utils.WriteSuccess(w)
}
