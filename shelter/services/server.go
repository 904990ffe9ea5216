package services

import (
	"io"
	"log"
	"net/http"
	"os"
	"pawhaven/shelter/auth"
	"pawhaven/shelter/mailer"
	"pawhaven/shelter/outbox"
	"pawhaven/shelter/storage"
	"pawhaven/utils"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

type Options struct {
	JwtSecret []byte
	JwtExpiry time.Duration

	// Shared secret gating admin self-registration.
	AdminSecretKey string

	// Base url prefixed onto uploaded image paths.
	PublicUrl string

	AuditLog io.Writer
}

type Server struct {
	auth        AuthService
	dog         DogService
	volunteer   VolunteerService
	rescue      RescueService
	application ApplicationService
	upload      UploadService

	db     *gorm.DB
	worker *outbox.Worker
}

func NewServer(db *gorm.DB, store storage.Storage, m mailer.Mailer, opts Options) Server {
	authenticator := auth.NewAuthenticator(db, opts.JwtSecret, opts.JwtExpiry, opts.AuditLog)

	return Server{
		auth:        AuthService{db: db, auth: authenticator, adminSecretKey: opts.AdminSecretKey},
		dog:         DogService{db: db, auth: authenticator},
		volunteer:   VolunteerService{db: db, auth: authenticator},
		rescue:      RescueService{db: db, auth: authenticator},
		application: ApplicationService{db: db, auth: authenticator},
		upload:      UploadService{storage: store, auth: authenticator, publicUrl: opts.PublicUrl},
		db:          db,
		worker:      outbox.NewWorker(db, m),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/auth", s.auth.Routes())
	r.Mount("/dogs", s.dog.Routes())
	r.Mount("/volunteers", s.volunteer.Routes())
	r.Mount("/rescue-submissions", s.rescue.Routes())
	r.Mount("/applications", s.application.Routes())
	r.Mount("/uploads", s.upload.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}

// MailWorker is the outbox worker; run it in its own goroutine alongside
// the http server.
func (s *Server) MailWorker() *outbox.Worker {
	return s.worker
}
