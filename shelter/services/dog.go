package services

import (
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

type DogService struct {
	db   *gorm.DB
	auth *auth.Authenticator
}

func (s *DogService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.List)
	r.Get("/{dog_id}", s.Get)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.AdminMiddleware()...)

		r.Post("/", s.Create)
		r.Put("/{dog_id}", s.Update)
		r.Delete("/{dog_id}", s.Delete)
	})

	return r
}

type dogInfo struct {
	Id          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Breed       string     `json:"breed"`
	Age         string     `json:"age"`
	Size        string     `json:"size"`
	Gender      string     `json:"gender"`
	Image       string     `json:"image"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	RescueId    *uuid.UUID `json:"rescueId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func convertToDogInfo(dog *schema.Dog) dogInfo {
	return dogInfo{
		Id:          dog.Id,
		Name:        dog.Name,
		Breed:       dog.Breed,
		Age:         dog.Age,
		Size:        dog.Size,
		Gender:      dog.Gender,
		Image:       dog.Image,
		Description: dog.Description,
		Tags:        splitTags(dog.Tags),
		Status:      dog.Status,
		RescueId:    dog.RescueId,
		CreatedAt:   dog.CreatedAt,
	}
}

func (s *DogService) List(w http.ResponseWriter, r *http.Request) {
	query := s.db.Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if size := r.URL.Query().Get("size"); size != "" {
		query = query.Where("size = ?", size)
	}
	if gender := r.URL.Query().Get("gender"); gender != "" {
		query = query.Where("gender = ?", gender)
	}

	var dogs []schema.Dog
	result := query.Find(&dogs)
	if result.Error != nil {
		slog.Error("sql error listing dogs", "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error listing dogs")
		return
	}

	infos := make([]dogInfo, 0, len(dogs))
	for _, dog := range dogs {
		infos = append(infos, convertToDogInfo(&dog))
	}
	utils.WriteData(w, infos)
}

func (s *DogService) Get(w http.ResponseWriter, r *http.Request) {
	dogId, err := utils.URLParamUUID(r, "dog_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	dog, err := schema.GetDog(dogId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrDogNotFound) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "error getting dog")
		return
	}

	utils.WriteData(w, convertToDogInfo(&dog))
}

type createDogRequest struct {
	Name        string   `json:"name" validate:"required"`
	Breed       string   `json:"breed" validate:"required"`
	Age         string   `json:"age"`
	Size        string   `json:"size" validate:"required,oneof=Small Medium Large"`
	Gender      string   `json:"gender" validate:"required,oneof=Male Female"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status" validate:"omitempty,oneof=available adopted fostered pending"`
}

func (s *DogService) Create(w http.ResponseWriter, r *http.Request) {
	var params createDogRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	status := params.Status
	if status == "" {
		status = schema.DogAvailable
	}

	dog := schema.Dog{
		Id:          uuid.New(),
		Name:        params.Name,
		Breed:       params.Breed,
		Age:         params.Age,
		Size:        params.Size,
		Gender:      params.Gender,
		Image:       params.Image,
		Description: params.Description,
		Tags:        joinTags(params.Tags),
		Status:      status,
	}

	result := s.db.Create(&dog)
	if result.Error != nil {
		slog.Error("sql error creating dog", "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error creating dog")
		return
	}

	slog.Info("created dog", "dog_id", dog.Id)
	utils.WriteData(w, convertToDogInfo(&dog))
}

type updateDogRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1"`
	Breed       *string   `json:"breed" validate:"omitempty,min=1"`
	Age         *string   `json:"age"`
	Size        *string   `json:"size" validate:"omitempty,oneof=Small Medium Large"`
	Gender      *string   `json:"gender" validate:"omitempty,oneof=Male Female"`
	Image       *string   `json:"image"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Status      *string   `json:"status" validate:"omitempty,oneof=available adopted fostered pending"`
}

func (s *DogService) Update(w http.ResponseWriter, r *http.Request) {
	dogId, err := utils.URLParamUUID(r, "dog_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var params updateDogRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	var dog schema.Dog
	err = s.db.Transaction(func(txn *gorm.DB) error {
		dog, err = schema.GetDog(dogId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrDogNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if params.Name != nil {
			dog.Name = *params.Name
		}
		if params.Breed != nil {
			dog.Breed = *params.Breed
		}
		if params.Age != nil {
			dog.Age = *params.Age
		}
		if params.Size != nil {
			dog.Size = *params.Size
		}
		if params.Gender != nil {
			dog.Gender = *params.Gender
		}
		if params.Image != nil {
			dog.Image = *params.Image
		}
		if params.Description != nil {
			dog.Description = *params.Description
		}
		if params.Tags != nil {
			dog.Tags = joinTags(*params.Tags)
		}
		if params.Status != nil {
			dog.Status = *params.Status
		}

		result := txn.Save(&dog)
		if result.Error != nil {
			slog.Error("sql error updating dog", "dog_id", dogId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error updating dog: %v", err))
		return
	}

	utils.WriteData(w, convertToDogInfo(&dog))
}

func (s *DogService) Delete(w http.ResponseWriter, r *http.Request) {
	dogId, err := utils.URLParamUUID(r, "dog_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetDog(dogId, txn); err != nil {
			if errors.Is(err, schema.ErrDogNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Delete(&schema.Dog{Id: dogId})
		if result.Error != nil {
			slog.Error("sql error deleting dog", "dog_id", dogId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error deleting dog: %v", err))
		return
	}

	slog.Info("deleted dog", "dog_id", dogId)
	utils.WriteSuccess(w)
}
