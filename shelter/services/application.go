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

type ApplicationService struct {
	db   *gorm.DB
	auth *auth.Authenticator
}

func (s *ApplicationService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware()...)

		r.Post("/", s.Create)
		r.Get("/my-applications", s.ListMine)
		r.Get("/{application_id}", s.Get)
		r.Patch("/{application_id}/withdraw", s.Withdraw)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth.AdminMiddleware()...)

		r.Get("/", s.List)
		r.Patch("/{application_id}/status", s.UpdateStatus)
	})

	return r
}

type applicationInfo struct {
	Id    uuid.UUID `json:"id"`
	DogId uuid.UUID `json:"dogId"`
	Dog   *dogInfo  `json:"dog,omitempty"`

	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
	ApplicantPhone string `json:"applicantPhone"`
	Address        string `json:"address"`
	HousingType    string `json:"housingType"`
	HasYard        bool   `json:"hasYard"`
	OtherPets      string `json:"otherPets"`
	Experience     string `json:"experience"`
	Reason         string `json:"reason"`

	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

func convertToApplicationInfo(application *schema.Application) applicationInfo {
	info := applicationInfo{
		Id:             application.Id,
		DogId:          application.DogId,
		ApplicantName:  application.ApplicantName,
		ApplicantEmail: application.ApplicantEmail,
		ApplicantPhone: application.ApplicantPhone,
		Address:        application.Address,
		HousingType:    application.HousingType,
		HasYard:        application.HasYard,
		OtherPets:      application.OtherPets,
		Experience:     application.Experience,
		Reason:         application.Reason,
		Status:         application.Status,
		Notes:          application.Notes,
		CreatedAt:      application.CreatedAt,
	}
	if application.Dog != nil {
		dog := convertToDogInfo(application.Dog)
		info.Dog = &dog
	}
	return info
}

type createApplicationRequest struct {
	DogId uuid.UUID `json:"dogId" validate:"required"`

	ApplicantName  string `json:"applicantName" validate:"required"`
	ApplicantEmail string `json:"applicantEmail" validate:"required,email"`
	ApplicantPhone string `json:"applicantPhone"`
	Address        string `json:"address" validate:"required"`
	HousingType    string `json:"housingType"`
	HasYard        bool   `json:"hasYard"`
	OtherPets      string `json:"otherPets"`
	Experience     string `json:"experience"`
	Reason         string `json:"reason" validate:"required"`
}

func (s *ApplicationService) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var params createApplicationRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	var application schema.Application
	var dog schema.Dog
	err = s.db.Transaction(func(txn *gorm.DB) error {
		dog, err = schema.GetDog(params.DogId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrDogNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		var existing schema.Application
		result := txn.Limit(1).Find(&existing, "user_id = ? AND dog_id = ?", user.Id, params.DogId)
		if result.Error != nil {
			slog.Error("sql error checking for existing application", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected > 0 {
			return CodedError(
				fmt.Errorf("you have already applied for this dog (application %v)", existing.Id),
				http.StatusBadRequest,
			)
		}

		application = schema.Application{
			Id:             uuid.New(),
			UserId:         user.Id,
			DogId:          params.DogId,
			ApplicantName:  params.ApplicantName,
			ApplicantEmail: params.ApplicantEmail,
			ApplicantPhone: params.ApplicantPhone,
			Address:        params.Address,
			HousingType:    params.HousingType,
			HasYard:        params.HasYard,
			OtherPets:      params.OtherPets,
			Experience:     params.Experience,
			Reason:         params.Reason,
			Status:         schema.ApplicationPending,
		}

		if result := txn.Create(&application); result.Error != nil {
			slog.Error("sql error creating application", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error creating application: %v", err))
		return
	}

	err = outbox.Enqueue(s.db, mailer.TemplateApplicationReceived, application.ApplicantEmail, mailer.Data{
		"Name":    application.ApplicantName,
		"DogName": dog.Name,
	})
	if err != nil {
		slog.Error("error enqueueing application received email", "application_id", application.Id, "error", err)
	}

	slog.Info("created adoption application", "application_id", application.Id, "dog_id", application.DogId)
	application.Dog = &dog
	utils.WriteData(w, convertToApplicationInfo(&application))
}

func (s *ApplicationService) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var applications []schema.Application
	result := s.db.Preload("Dog").Order("created_at DESC").Find(&applications, "user_id = ?", user.Id)
	if result.Error != nil {
		slog.Error("sql error listing user applications", "user_id", user.Id, "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error listing applications")
		return
	}

	infos := make([]applicationInfo, 0, len(applications))
	for _, application := range applications {
		infos = append(infos, convertToApplicationInfo(&application))
	}
	utils.WriteData(w, infos)
}

func (s *ApplicationService) List(w http.ResponseWriter, r *http.Request) {
	query := s.db.Preload("Dog").Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var applications []schema.Application
	result := query.Find(&applications)
	if result.Error != nil {
		slog.Error("sql error listing applications", "error", result.Error)
		utils.WriteError(w, http.StatusInternalServerError, "error listing applications")
		return
	}

	infos := make([]applicationInfo, 0, len(applications))
	for _, application := range applications {
		infos = append(infos, convertToApplicationInfo(&application))
	}
	utils.WriteData(w, infos)
}

func (s *ApplicationService) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	applicationId, err := utils.URLParamUUID(r, "application_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	application, err := schema.GetApplication(applicationId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrApplicationNotFound) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "error getting application")
		return
	}

	if !user.IsAdmin && application.UserId != user.Id {
		utils.WriteError(w, http.StatusForbidden, "you do not have access to this application")
		return
	}

	utils.WriteData(w, convertToApplicationInfo(&application))
}

func (s *ApplicationService) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	applicationId, err := utils.URLParamUUID(r, "application_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var application schema.Application
	err = s.db.Transaction(func(txn *gorm.DB) error {
		application, err = schema.GetApplication(applicationId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrApplicationNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if application.UserId != user.Id {
			return CodedError(errors.New("you do not have access to this application"), http.StatusForbidden)
		}

		if application.Status != schema.ApplicationPending && application.Status != schema.ApplicationUnderReview {
			return CodedError(
				fmt.Errorf("cannot withdraw an application with status '%v'", application.Status),
				http.StatusBadRequest,
			)
		}

		application.Status = schema.ApplicationWithdrawn
		if result := txn.Save(&application); result.Error != nil {
			slog.Error("sql error withdrawing application", "application_id", applicationId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error withdrawing application: %v", err))
		return
	}

	slog.Info("withdrew adoption application", "application_id", application.Id)
	utils.WriteData(w, convertToApplicationInfo(&application))
}

type updateApplicationStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

func (s *ApplicationService) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	applicationId, err := utils.URLParamUUID(r, "application_id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var params updateApplicationStatusRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}
	if err := schema.CheckValidApplicationStatus(params.Status); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var application schema.Application
	var changed bool
	err = s.db.Transaction(func(txn *gorm.DB) error {
		application, err = schema.GetApplication(applicationId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrApplicationNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		changed = application.Status != params.Status
		application.Status = params.Status
		if params.Notes != nil {
			application.Notes = *params.Notes
		}

		if result := txn.Save(&application); result.Error != nil {
			slog.Error("sql error updating application status", "application_id", applicationId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		utils.WriteError(w, GetResponseCode(err), fmt.Sprintf("error updating application status: %v", err))
		return
	}

	// Notify the applicant only on an actual transition, so repeating the
	// same status update does not send duplicate emails.
	if changed {
		var template string
		switch application.Status {
		case schema.ApplicationApproved:
			template = mailer.TemplateApplicationApproved
		case schema.ApplicationRejected:
			template = mailer.TemplateApplicationRejected
		}
		if template != "" {
			dogName := ""
			if application.Dog != nil {
				dogName = application.Dog.Name
			}
			err := outbox.Enqueue(s.db, template, application.ApplicantEmail, mailer.Data{
				"Name":    application.ApplicantName,
				"DogName": dogName,
			})
			if err != nil {
				slog.Error("error enqueueing application status email", "application_id", application.Id, "error", err)
			}
		}
	}

	slog.Info("updated application status", "application_id", application.Id, "status", application.Status)
	utils.WriteData(w, convertToApplicationInfo(&application))
}
