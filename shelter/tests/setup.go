package tests

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pawhaven/shelter/mailer"
	"pawhaven/shelter/outbox"
	"pawhaven/shelter/schema"
	"pawhaven/shelter/services"
	"pawhaven/shelter/storage"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	adminSecretKey = "super-secret-admin-key"

	adminUsername = "admin123"
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

// captureMailer records sent emails instead of talking to an smtp server.
// Setting fail makes every send return an error.
type captureMailer struct {
	mu   sync.Mutex
	sent []capturedEmail
	fail bool
}

type capturedEmail struct {
	To      string
	Subject string
	Html    string
}

func (m *captureMailer) Send(ctx context.Context, to string, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, capturedEmail{To: to, Subject: msg.Subject, Html: msg.Html})
	return nil
}

func (m *captureMailer) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *captureMailer) emails() []capturedEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]capturedEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

type testEnv struct {
	api     chi.Router
	db      *gorm.DB
	storage storage.Storage
	mailer  *captureMailer
	worker  *outbox.Worker
}

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AutoMigrate(schema.AllEntities()...); err != nil {
		t.Fatal(err)
	}

	store := storage.NewDisk(filepath.Join(t.TempDir(), "storage"))
	m := &captureMailer{}

	server := services.NewServer(db, store, m, services.Options{
		JwtSecret:      []byte("290zcv02ai249"),
		JwtExpiry:      time.Hour,
		AdminSecretKey: adminSecretKey,
		PublicUrl:      "http://localhost:8000",
		AuditLog:       new(bytes.Buffer),
	})

	return &testEnv{
		api:     server.Routes(),
		db:      db,
		storage: store,
		mailer:  m,
		worker:  server.MailWorker(),
	}
}

// drainOutbox delivers all queued emails synchronously, in place of the
// background worker loop.
func (t *testEnv) drainOutbox() {
	t.worker.Drain()
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) newUser(username string) (client, error) {
	c := t.newClient()

	err := c.register(username, username+"@mail.com", username+"_password")
	if err != nil {
		return client{}, err
	}

	err = c.login(username, username+"_password")
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()

	err := c.registerAdmin(adminUsername, adminEmail, adminPassword, adminSecretKey)
	if err != nil {
		return client{}, err
	}

	err = c.adminLogin(adminUsername, adminPassword)
	return c, err
}
