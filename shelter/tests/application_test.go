package tests

import (
	"net/http"
	"strings"
	"testing"
)

func sampleApplication(dogId string) map[string]interface{} {
	return map[string]interface{}{
		"dogId":          dogId,
		"applicantName":  "Taylor Adopter",
		"applicantEmail": "taylor@mail.com",
		"applicantPhone": "555-0101",
		"address":        "12 Main St",
		"housingType":    "House",
		"hasYard":        true,
		"otherPets":      "One cat",
		"experience":     "Previous dog owner.",
		"reason":         "Looking for a running companion.",
	}
}

func setupDogAndApplicant(t *testing.T, env *testEnv) (client, client, dog) {
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	created, err := admin.createDog(sampleDog("Buddy"))
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("taylor")
	if err != nil {
		t.Fatal(err)
	}

	return admin, user, created
}

func TestApplicationLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	admin, user, buddy := setupDogAndApplicant(t, env)

	created, err := user.createApplication(sampleApplication(buddy.Id))
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != "Pending" {
		t.Fatalf("new application should be Pending, got %v", created.Status)
	}
	if created.Dog == nil || created.Dog.Name != "Buddy" {
		t.Fatalf("application should include the dog, got %v", created.Dog)
	}

	mine, err := user.myApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].Id != created.Id {
		t.Fatalf("unexpected my-applications result %v", mine)
	}

	all, err := admin.listApplications()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 application, got %d", len(all))
	}

	approved, err := admin.updateApplicationStatus(created.Id, "Approved")
	if err != nil {
		t.Fatal(err)
	}
	if approved.Status != "Approved" {
		t.Fatalf("expected Approved, got %v", approved.Status)
	}

	env.drainOutbox()

	emails := env.mailer.emails()
	if len(emails) != 2 {
		t.Fatalf("expected received + approved emails, got %d", len(emails))
	}
	if !strings.Contains(emails[1].Html, "Buddy") || !strings.Contains(emails[1].Html, "Taylor Adopter") {
		t.Fatalf("approval email missing applicant or dog name: %v", emails[1].Html)
	}
}

func TestApplicationRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)
	_, _, buddy := setupDogAndApplicant(t, env)

	anon := env.newClient()
	_, err := anon.createApplication(sampleApplication(buddy.Id))
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDuplicateApplicationRejected(t *testing.T) {
	env := setupTestEnv(t)
	_, user, buddy := setupDogAndApplicant(t, env)

	first, err := user.createApplication(sampleApplication(buddy.Id))
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.createApplication(sampleApplication(buddy.Id))
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate application, got %v", err)
	}
	if !strings.Contains(apiErr.message, first.Id) {
		t.Fatalf("duplicate error should reference the existing application: %v", apiErr.message)
	}

	// A different user can still apply for the same dog.
	other, err := env.newUser("jordan")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.createApplication(sampleApplication(buddy.Id)); err != nil {
		t.Fatal(err)
	}
}

func TestApplicationForMissingDog(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("hopeful")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.createApplication(sampleApplication("e6b1a1f0-0000-0000-0000-000000000000"))
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing dog, got %v", err)
	}
}

func TestApplicationWithdraw(t *testing.T) {
	env := setupTestEnv(t)
	admin, user, buddy := setupDogAndApplicant(t, env)

	created, err := user.createApplication(sampleApplication(buddy.Id))
	if err != nil {
		t.Fatal(err)
	}

	// Only the owner can withdraw.
	other, err := env.newUser("intruder")
	if err != nil {
		t.Fatal(err)
	}
	_, err = other.withdrawApplication(created.Id)
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign withdraw, got %v", err)
	}

	withdrawn, err := user.withdrawApplication(created.Id)
	if err != nil {
		t.Fatal(err)
	}
	if withdrawn.Status != "Withdrawn" {
		t.Fatalf("expected Withdrawn, got %v", withdrawn.Status)
	}

	// Withdrawing again is rejected, as is withdrawing decided applications.
	_, err = user.withdrawApplication(created.Id)
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusBadRequest {
		t.Fatalf("expected 400 withdrawing twice, got %v", err)
	}

	second, err := admin.createDog(sampleDog("Daisy"))
	if err != nil {
		t.Fatal(err)
	}
	decided, err := user.createApplication(sampleApplication(second.Id))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.updateApplicationStatus(decided.Id, "Rejected"); err != nil {
		t.Fatal(err)
	}
	_, err = user.withdrawApplication(decided.Id)
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusBadRequest {
		t.Fatalf("expected 400 withdrawing a decided application, got %v", err)
	}
}

func TestApplicationStatusEmailsSentOnce(t *testing.T) {
	env := setupTestEnv(t)
	admin, user, buddy := setupDogAndApplicant(t, env)

	created, err := user.createApplication(sampleApplication(buddy.Id))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := admin.updateApplicationStatus(created.Id, "Rejected"); err != nil {
			t.Fatal(err)
		}
	}

	env.drainOutbox()

	emails := env.mailer.emails()
	if len(emails) != 2 {
		t.Fatalf("expected received + rejected emails only, got %d", len(emails))
	}
}

func TestApplicationAccessControl(t *testing.T) {
	env := setupTestEnv(t)
	admin, user, buddy := setupDogAndApplicant(t, env)

	created, err := user.createApplication(sampleApplication(buddy.Id))
	if err != nil {
		t.Fatal(err)
	}

	// The owner and an admin can view, another user cannot.
	if _, err := user.getApplication(created.Id); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.getApplication(created.Id); err != nil {
		t.Fatal(err)
	}

	other, err := env.newUser("snoop")
	if err != nil {
		t.Fatal(err)
	}
	_, err = other.getApplication(created.Id)
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}

	// Status updates and the full listing are admin only.
	_, err = user.updateApplicationStatus(created.Id, "Approved")
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}

	_, err = user.listApplications()
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}
