package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDogNotFound         = errors.New("dog not found")
	ErrVolunteerNotFound   = errors.New("volunteer not found")
	ErrSubmissionNotFound  = errors.New("rescue submission not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrDbAccessFailed      = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetUserByUsername(username string, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user by username", "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetDog(dogId uuid.UUID, db *gorm.DB) (Dog, error) {
	var dog Dog

	result := db.First(&dog, "id = ?", dogId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return dog, ErrDogNotFound
		}
		slog.Error("sql error in get dog", "dog_id", dogId, "error", result.Error)
		return dog, ErrDbAccessFailed
	}

	return dog, nil
}

func GetVolunteer(volunteerId uuid.UUID, db *gorm.DB) (Volunteer, error) {
	var volunteer Volunteer

	result := db.First(&volunteer, "id = ?", volunteerId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return volunteer, ErrVolunteerNotFound
		}
		slog.Error("sql error in get volunteer", "volunteer_id", volunteerId, "error", result.Error)
		return volunteer, ErrDbAccessFailed
	}

	return volunteer, nil
}

func GetSubmission(submissionId uuid.UUID, db *gorm.DB) (RescueSubmission, error) {
	var submission RescueSubmission

	result := db.First(&submission, "id = ?", submissionId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return submission, ErrSubmissionNotFound
		}
		slog.Error("sql error in get rescue submission", "submission_id", submissionId, "error", result.Error)
		return submission, ErrDbAccessFailed
	}

	return submission, nil
}

func GetApplication(applicationId uuid.UUID, db *gorm.DB) (Application, error) {
	var application Application

	result := db.Preload("Dog").First(&application, "id = ?", applicationId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return application, ErrApplicationNotFound
		}
		slog.Error("sql error in get application", "application_id", applicationId, "error", result.Error)
		return application, ErrDbAccessFailed
	}

	return application, nil
}
