package schema

import (
	"time"

	"github.com/google/uuid"
)

type Dog struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name  string `gorm:"size:100;not null"`
	Breed string `gorm:"size:100;not null"`
	Age   string `gorm:"size:50"`

	Size   string `gorm:"size:20;not null"`
	Gender string `gorm:"size:20;not null"`

	Image       string `gorm:"size:500"`
	Description string

	// Comma separated tag set, exposed as a list in the API.
	Tags string `gorm:"size:500"`

	Status string `gorm:"size:20;not null;default:'available'"`

	RescueId *uuid.UUID        `gorm:"type:uuid"`
	Rescue   *RescueSubmission `gorm:"foreignKey:RescueId;constraint:OnDelete:SET NULL"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Volunteer struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name  string `gorm:"size:100;not null"`
	Email string `gorm:"size:254;not null"`
	Phone string `gorm:"size:50"`

	VolunteerType string `gorm:"size:100;not null"`
	Availability  string `gorm:"size:200"`
	Experience    string
	Message       string

	Status string `gorm:"size:20;not null;default:'pending'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RescueSubmission struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name  string `gorm:"size:100"`
	Breed string `gorm:"size:100"`

	Gender string `gorm:"size:20;not null"`
	Age    string `gorm:"size:50"`
	Size   string `gorm:"size:20;not null"`

	Location    string `gorm:"size:200;not null"`
	Description string

	ContactName  string `gorm:"size:100;not null"`
	ContactEmail string `gorm:"size:254;not null"`
	ContactPhone string `gorm:"size:50"`

	// Ordered list of image urls, stored json encoded.
	ImageUrls string

	Status string `gorm:"size:20;not null;default:'pending'"`

	UserId *uuid.UUID `gorm:"type:uuid"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Application struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_dog"`
	DogId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_dog"`

	User *User `gorm:"constraint:OnDelete:CASCADE"`
	Dog  *Dog  `gorm:"constraint:OnDelete:CASCADE"`

	// Snapshot of the applicant at submission time, kept even if the
	// user record changes later.
	ApplicantName  string `gorm:"size:100;not null"`
	ApplicantEmail string `gorm:"size:254;not null"`
	ApplicantPhone string `gorm:"size:50"`
	Address        string `gorm:"size:300"`
	HousingType    string `gorm:"size:50"`
	HasYard        bool
	OtherPets      string `gorm:"size:300"`
	Experience     string
	Reason         string

	Status string `gorm:"size:20;not null;default:'Pending'"`
	Notes  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Username string `gorm:"unique;size:50;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Name     string `gorm:"size:100"`
	Password []byte `json:"-"`

	IsAdmin bool   `gorm:"not null;default:false"`
	Status  string `gorm:"size:20;not null;default:'active'"`

	CreatedAt time.Time
}

type EmailOutbox struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Template  string `gorm:"size:50;not null"`
	Recipient string `gorm:"size:254;not null"`

	// Template data bag, json encoded.
	Data string

	Status    string `gorm:"size:20;not null;default:'pending';index"`
	Attempts  int    `gorm:"not null;default:0"`
	LastError string

	SentAt    *time.Time
	CreatedAt time.Time
}

// AllEntities is the migration list shared by AutoMigrate callers.
func AllEntities() []interface{} {
	return []interface{}{
		&User{}, &Dog{}, &Volunteer{}, &RescueSubmission{}, &Application{}, &EmailOutbox{},
	}
}
