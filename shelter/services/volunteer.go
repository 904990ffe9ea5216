package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"pawhaven/shelter/auth"
	"pawhaven/shelter/mailer"
	"pawhaven/shelter/outbox"
	"pawhaven/shelter/schema"
	"pawhaven/utils"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VolunteerService struct {
	db   *gorm.DB
	auth *auth.Authenticator
}

func (s *VolunteerService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", s.Create)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.AdminMiddleware()...)

		r.Get("/", s.List)
		r.Get("/{volunteer_id}", s.Get)
		r.Put("/{volunteer_id}", s.Update)
		r.Delete("/{volunteer_id}", s.Delete)
		r.Patch("/{volunteer_id}/status", s.UpdateStatus)
	})

	return r
}

type volunteerInfo struct {
	Id            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	VolunteerType string    `json:"volunteerType"`
	Availability  string    `json:"availability"`
	Experience    string    `json:"experience"`
	Message       string    `json:"message"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func convertToVolunteerInfo(volunteer *schema.Volunteer) volunteerInfo {
	return volunteerInfo{
		Id:            volunteer.Id,
		Name:          volunteer.Name,
		Email:         volunteer.Email,
		Phone:         volunteer.Phone,
		VolunteerType: volunteer.VolunteerType,
		Availability:  volunteer.Availability,
		Experience:    volunteer.Experience,
		Message:       volunteer.Message,
		Status:        volunteer.Status,
		CreatedAt:     volunteer.CreatedAt,
	}
}

type createVolunteerRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	VolunteerType string `json:"volunteerType" validate:"required"`
	Availability  string `json:"availability"`
	Experience    string `json:"experience"`
	Message       string `json:"message"`
}

func (s *VolunteerService) Create(w http.ResponseWriter, r *http.Request) {
	var params createVolunteerRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	volunteer := schema.Volunteer{
		Id:            uuid.New(),
		Name:          params.Name,
		Email:         params.Email,
		Phone:         params.Phone,
		VolunteerType: params.VolunteerType,
		Availability:  params.Availability,
		Experience:    params.Experience,
		Message:       params.Message,
		Status:        schema.VolunteerPending,
	}

	result := s.db.Create(&volunteer)
	if result.Error != nil {
		slog.Error("sql error creating volunteer", "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error submitting volunteer application")
		return
	}

	err := outbox.Enqueue(s.db, mailer.TemplateVolunteerReceived, volunteer.Email, mailer.Data{
		"Name":          volunteer.Name,
		"VolunteerType": volunteer.VolunteerType,
	})
	if err != nil {
		slog.Error("error enqueueing volunteer received email", "volunteer_id", volunteer.Id, "error", err)
	}

	slog.Info("created volunteer application", "volunteer_id", volunteer.Id)
	utils.WriteData(w, convertToVolunteerInfo(&volunteer))
}

func (s *VolunteerService) List(w http.ResponseWriter, r *http.Request) {
	query := s.db.Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var volunteers []schema.Volunteer
	result := query.Find(&volunteers)
	if result.Error != nil {
		slog.Error("sql error listing volunteers", "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error listing volunteers")
		return
	}

	infos := make([]volunteerInfo, 0, len(volunteers))
	for _, volunteer := range volunteers {
		infos = append(infos, convertToVolunteerInfo(&volunteer))
	}
	utils.WriteData(w, infos)
}

func (s *VolunteerService) Get(w http.ResponseWriter, r *http.Request) {
	volunteerId, err := utils.URLParamUUID(r, "volunteer_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	volunteer, err := schema.GetVolunteer(volunteerId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrVolunteerNotFound) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "error getting volunteer")
		return
	}

	utils.WriteData(w, convertToVolunteerInfo(&volunteer))
}

type updateVolunteerRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone"`
	VolunteerType *string `json:"volunteerType" validate:"omitempty,min=1"`
	Availability  *string `json:"availability"`
	Experience    *string `json:"experience"`
	Message       *string `json:"message"`
}

func (s *VolunteerService) Update(w http.ResponseWriter, r *http.Request) {
	volunteerId, err := utils.URLParamUUID(r, "volunteer_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var params updateVolunteerRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	var volunteer schema.Volunteer
	err = s.db.Transaction(func(txn *gorm.DB) error {
		volunteer, err = schema.GetVolunteer(volunteerId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrVolunteerNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if params.Name != nil {
			volunteer.Name = *params.Name
		}
		if params.Email != nil {
			volunteer.Email = *params.Email
		}
		if params.Phone != nil {
			volunteer.Phone = *params.Phone
		}
		if params.VolunteerType != nil {
			volunteer.VolunteerType = *params.VolunteerType
		}
		if params.Availability != nil {
			volunteer.Availability = *params.Availability
		}
		if params.Experience != nil {
			volunteer.Experience = *params.Experience
		}
		if params.Message != nil {
			volunteer.Message = *params.Message
		}

		result := txn.Save(&volunteer)
		if result.Error != nil {
			slog.Error("sql error updating volunteer", "volunteer_id", volunteerId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error updating volunteer: %v", err))
		return
	}

	utils.WriteData(w, convertToVolunteerInfo(&volunteer))
}

func (s *VolunteerService) Delete(w http.ResponseWriter, r *http.Request) {
	volunteerId, err := utils.URLParamUUID(r, "volunteer_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetVolunteer(volunteerId, txn); err != nil {
			if errors.Is(err, schema.ErrVolunteerNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Delete(&schema.Volunteer{Id: volunteerId})
		if result.Error != nil {
			slog.Error("sql error deleting volunteer", "volunteer_id", volunteerId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error deleting volunteer: %v", err))
		return
	}

	utils.WriteSuccess(w)
}

type updateVolunteerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

func (s *VolunteerService) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	volunteerId, err := utils.URLParamUUID(r, "volunteer_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var params updateVolunteerStatusRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	var volunteer schema.Volunteer
	var changed bool
	err = s.db.Transaction(func(txn *gorm.DB) error {
		volunteer, err = schema.GetVolunteer(volunteerId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrVolunteerNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		changed = volunteer.Status != params.Status
		volunteer.Status = params.Status

		result := txn.Save(&volunteer)
		if result.Error != nil {
			slog.Error("sql error updating volunteer status", "volunteer_id", volunteerId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error updating volunteer status: %v", err))
		return
	}

	// Notify only on an actual transition into a resolved state.
	if changed {
		var template string
		switch volunteer.Status {
		case schema.VolunteerApproved:
			template = mailer.TemplateVolunteerApproved
		case schema.VolunteerRejected:
			template = mailer.TemplateVolunteerRejected
		}
		if template != "" {
			err := outbox.Enqueue(s.db, template, volunteer.Email, mailer.Data{
				"Name":          volunteer.Name,
				"VolunteerType": volunteer.VolunteerType,
			})
			if err != nil {
				slog.Error("error enqueueing volunteer status email", "volunteer_id", volunteer.Id, "error", err)
			}
		}
	}

	slog.Info("updated volunteer status", "volunteer_id", volunteer.Id, "status", volunteer.Status)
	utils.WriteData(w, convertToVolunteerInfo(&volunteer))
}
