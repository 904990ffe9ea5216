package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"pawhaven/shelter/mailer"
	"pawhaven/shelter/schema"
	"pawhaven/shelter/services"
	"pawhaven/shelter/storage"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	slogmulti "github.com/samber/slog-multi"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type serverEnv struct {
	DatabaseUri string `env:"DATABASE_URI,required"`

	JwtSecret string        `env:"JWT_SECRET,required"`
	JwtExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	AdminSecretKey string `env:"ADMIN_SECRET_KEY,required"`

	DataDir   string `env:"DATA_DIR" envDefault:"./data"`
	PublicUrl string `env:"PUBLIC_URL" envDefault:"http://localhost:8000"`

	CorsOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	SmtpHost     string `env:"SMTP_HOST,required"`
	SmtpPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SmtpUsername string `env:"SMTP_USERNAME,required"`
	SmtpPassword string `env:"SMTP_PASSWORD,required"`
	SmtpFrom     string `env:"SMTP_FROM,required"`
}

func loadEnv(envFile string) serverEnv {
	if envFile != "" {
		slog.Info(fmt.Sprintf("loading env from file %v", envFile))
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("error loading .env file '%v': %v", envFile, err)
		}
	}

	var cfg serverEnv
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing environment: %v", err)
	}
	return cfg
}

func postgresDsn(uri string) string {
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func initLogging(logFile *os.File) {
	logger := slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(logFile, nil),
		slog.NewTextHandler(os.Stderr, nil),
	))
	slog.SetDefault(logger)
	slog.Info("logging initialized", "log_file", logFile.Name())
}

func initDb(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	if err := db.AutoMigrate(schema.AllEntities()...); err != nil {
		log.Fatalf("error migrating db schema: %v", err)
	}

	return db
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")
	port := flag.Int("port", 8000, "Port to run server on")
	flag.Parse()

	cfg := loadEnv(*envFile)

	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "logs"), 0777); err != nil {
		log.Fatalf("error creating log dir: %v", err)
	}

	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "logs/server.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	auditLog, err := os.OpenFile(filepath.Join(cfg.DataDir, "logs/audit.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening audit log file: %v", err)
	}
	defer auditLog.Close()

	initLogging(logFile)

	db := initDb(postgresDsn(cfg.DatabaseUri))

	store := storage.NewDisk(cfg.DataDir)

	smtpMailer := mailer.NewSmtpMailer(
		cfg.SmtpHost, cfg.SmtpPort, cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpFrom,
	)

	server := services.NewServer(db, store, smtpMailer, services.Options{
		JwtSecret:      []byte(cfg.JwtSecret),
		JwtExpiry:      cfg.JwtExpiry,
		AdminSecretKey: cfg.AdminSecretKey,
		PublicUrl:      cfg.PublicUrl,
		AuditLog:       auditLog,
	})

	go server.MailWorker().Run(30 * time.Second)
	defer server.MailWorker().Stop()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CorsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/api", server.Routes())

	uploadsDir := http.Dir(filepath.Join(store.Location(), "uploads"))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(uploadsDir)))

	addr := fmt.Sprintf("0.0.0.0:%d", *port)
	slog.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
