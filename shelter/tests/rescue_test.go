package tests

import (
	"net/http"
	"strings"
	"testing"
)

func sampleSubmission() map[string]interface{} {
	return map[string]interface{}{
		"name":         "Scout",
		"breed":        "Beagle",
		"gender":       "Female",
		"age":          "2 years",
		"size":         "Small",
		"location":     "Riverside Park",
		"description":  "Found wandering near the river.",
		"contactName":  "Alex Finder",
		"contactEmail": "alex@mail.com",
		"imageUrls":    []string{"/uploads/scout1.jpg", "/uploads/scout2.jpg"},
	}
}

func TestRescueSubmission(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()
	created, err := anon.createSubmission(sampleSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != "pending" {
		t.Fatalf("new submission should be pending, got %v", created.Status)
	}
	if created.UserId != nil {
		t.Fatal("anonymous submission should have no user")
	}
	if len(created.ImageUrls) != 2 {
		t.Fatalf("unexpected image urls %v", created.ImageUrls)
	}

	// A logged in submitter is recorded on the submission.
	user, err := env.newUser("finder")
	if err != nil {
		t.Fatal(err)
	}
	attributed, err := user.createSubmission(sampleSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if attributed.UserId == nil || *attributed.UserId != user.userId {
		t.Fatalf("submission should record the submitting user, got %v", attributed.UserId)
	}

	// Listing is admin only.
	_, err = user.listSubmissions()
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	submissions, err := admin.listSubmissions()
	if err != nil {
		t.Fatal(err)
	}
	if len(submissions) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(submissions))
	}
}

func TestRescueSubmissionValidation(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()
	_, err := anon.createSubmission(map[string]interface{}{
		"gender": "Unknown", "size": "Small", "contactEmail": "not-an-email",
	})
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	for _, field := range []string{"gender", "location", "contactName", "contactEmail"} {
		if apiErr.fields[field] == "" {
			t.Fatalf("expected field error for %v, got %v", field, apiErr.fields)
		}
	}
}

func TestRescuePromotionCreatesDog(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()
	created, err := anon.createSubmission(sampleSubmission())
	if err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	updated, err := admin.updateSubmission(created.Id, map[string]interface{}{"status": "rescued"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "rescued" {
		t.Fatalf("expected rescued, got %v", updated.Status)
	}

	dogs, err := anon.listDogs("")
	if err != nil {
		t.Fatal(err)
	}
	if len(dogs) != 1 {
		t.Fatalf("expected promoted dog, got %d dogs", len(dogs))
	}

	dog := dogs[0]
	if dog.Name != "Scout" || dog.Breed != "Beagle" || dog.Status != "available" {
		t.Fatalf("unexpected promoted dog %v", dog)
	}
	if dog.Image != "/uploads/scout1.jpg" {
		t.Fatalf("promoted dog should use the first submission image, got %v", dog.Image)
	}
	if dog.RescueId == nil || *dog.RescueId != created.Id {
		t.Fatalf("promoted dog should link back to the submission, got %v", dog.RescueId)
	}
	if !strings.Contains(dog.Description, "Riverside Park") {
		t.Fatalf("promoted dog description should mention the rescue location: %v", dog.Description)
	}
	if len(dog.Tags) != 2 || dog.Tags[0] != "Rescue" || dog.Tags[1] != "Needs Home" {
		t.Fatalf("unexpected promoted dog tags %v", dog.Tags)
	}

	// Saving the submission again while already rescued must not create a
	// second dog.
	if _, err := admin.updateSubmission(created.Id, map[string]interface{}{"status": "rescued"}); err != nil {
		t.Fatal(err)
	}
	dogs, err = anon.listDogs("")
	if err != nil {
		t.Fatal(err)
	}
	if len(dogs) != 1 {
		t.Fatalf("promotion should happen exactly once, got %d dogs", len(dogs))
	}
}

func TestRescuePromotionPlaceholders(t *testing.T) {
	env := setupTestEnv(t)

	body := sampleSubmission()
	body["name"] = ""
	body["breed"] = ""
	body["imageUrls"] = []string{}

	anon := env.newClient()
	created, err := anon.createSubmission(body)
	if err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.updateSubmission(created.Id, map[string]interface{}{"status": "rescued"}); err != nil {
		t.Fatal(err)
	}

	dogs, err := anon.listDogs("")
	if err != nil {
		t.Fatal(err)
	}
	if len(dogs) != 1 {
		t.Fatalf("expected promoted dog, got %d", len(dogs))
	}
	if dogs[0].Name != "Rescued Friend" || dogs[0].Breed != "Mixed Breed" {
		t.Fatalf("expected placeholder name and breed, got %v / %v", dogs[0].Name, dogs[0].Breed)
	}
	if dogs[0].Image == "" {
		t.Fatal("promoted dog without photos should get a placeholder image")
	}
}

func TestRescueNonRescuedTransitionsSkipPromotion(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()
	created, err := anon.createSubmission(sampleSubmission())
	if err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range []string{"processing", "closed"} {
		if _, err := admin.updateSubmission(created.Id, map[string]interface{}{"status": status}); err != nil {
			t.Fatal(err)
		}
	}

	dogs, err := anon.listDogs("")
	if err != nil {
		t.Fatal(err)
	}
	if len(dogs) != 0 {
		t.Fatalf("no dog should be created without a rescued transition, got %d", len(dogs))
	}
}
