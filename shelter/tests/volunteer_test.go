package tests

import (
	"net/http"
	"strings"
	"testing"
)

func sampleVolunteer(name, email string) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"email":         email,
		"phone":         "555-0100",
		"volunteerType": "Dog Walker",
		"availability":  "Weekends",
		"experience":    "Grew up with dogs.",
	}
}

func TestVolunteerSignupSendsConfirmation(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()
	created, err := anon.createVolunteer(sampleVolunteer("Jamie", "jamie@mail.com"))
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != "pending" {
		t.Fatalf("new volunteer should be pending, got %v", created.Status)
	}

	env.drainOutbox()

	emails := env.mailer.emails()
	if len(emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emails))
	}
	if emails[0].To != "jamie@mail.com" {
		t.Fatalf("email sent to wrong recipient: %v", emails[0].To)
	}
	if !strings.Contains(emails[0].Html, "Jamie") || !strings.Contains(emails[0].Html, "Dog Walker") {
		t.Fatalf("confirmation email missing volunteer details: %v", emails[0].Html)
	}
}

func TestVolunteerStatusChangeEmails(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()
	created, err := anon.createVolunteer(sampleVolunteer("Morgan", "morgan@mail.com"))
	if err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	updated, err := admin.updateVolunteerStatus(created.Id, "approved")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "approved" {
		t.Fatalf("expected approved, got %v", updated.Status)
	}

	// Re-applying the same status must not queue another email.
	if _, err := admin.updateVolunteerStatus(created.Id, "approved"); err != nil {
		t.Fatal(err)
	}

	env.drainOutbox()

	emails := env.mailer.emails()
	if len(emails) != 2 {
		t.Fatalf("expected signup + approval emails, got %d", len(emails))
	}
	if !strings.Contains(emails[1].Subject, "approved") && !strings.Contains(emails[1].Html, "approved") {
		t.Fatalf("approval email missing approval wording: subject %q", emails[1].Subject)
	}
}

func TestVolunteerStatusValidation(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()
	created, err := anon.createVolunteer(sampleVolunteer("Riley", "riley@mail.com"))
	if err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	_, err = admin.updateVolunteerStatus(created.Id, "promoted")
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %v", err)
	}
}

func TestVolunteerListRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("curious")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.listVolunteers()
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	anon := env.newClient()
	if _, err := anon.createVolunteer(sampleVolunteer("Sam", "sam@mail.com")); err != nil {
		t.Fatal(err)
	}

	volunteers, err := admin.listVolunteers()
	if err != nil {
		t.Fatal(err)
	}
	if len(volunteers) != 1 || volunteers[0].Name != "Sam" {
		t.Fatalf("unexpected volunteer list %v", volunteers)
	}
}
