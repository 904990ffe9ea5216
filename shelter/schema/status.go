package schema

import "fmt"

const (
	DogAvailable = "available"
	DogAdopted   = "adopted"
	DogFostered  = "fostered"
	DogPending   = "pending"

	SizeSmall  = "Small"
	SizeMedium = "Medium"
	SizeLarge  = "Large"

	GenderMale   = "Male"
	GenderFemale = "Female"
)

const (
	VolunteerPending  = "pending"
	VolunteerApproved = "approved"
	VolunteerRejected = "rejected"
)

const (
	RescuePending    = "pending"
	RescueProcessing = "processing"
	RescueRescued    = "rescued"
	RescueClosed     = "closed"
)

const (
	ApplicationPending     = "Pending"
	ApplicationUnderReview = "Under Review"
	ApplicationApproved    = "Approved"
	ApplicationRejected    = "Rejected"
	ApplicationWithdrawn   = "Withdrawn"
)

const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

const (
	EmailPending = "pending"
	EmailSent    = "sent"
	EmailFailed  = "failed"
)

func checkOneOf(kind, value string, valid ...string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("invalid %v '%v', must be one of %v", kind, value, valid)
}

func CheckValidDogStatus(status string) error {
	return checkOneOf("dog status", status, DogAvailable, DogAdopted, DogFostered, DogPending)
}

func CheckValidVolunteerStatus(status string) error {
	return checkOneOf("volunteer status", status, VolunteerPending, VolunteerApproved, VolunteerRejected)
}

func CheckValidRescueStatus(status string) error {
	return checkOneOf("rescue submission status", status, RescuePending, RescueProcessing, RescueRescued, RescueClosed)
}

func CheckValidApplicationStatus(status string) error {
	return checkOneOf(
		"application status", status,
		ApplicationPending, ApplicationUnderReview, ApplicationApproved, ApplicationRejected, ApplicationWithdrawn,
	)
}
