package tests

import (
	"net/http"
	"testing"
)

func sampleDog(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"breed":       "Labrador Retriever",
		"age":         "3 years",
		"size":        "Large",
		"gender":      "Male",
		"image":       "/uploads/buddy.jpg",
		"description": "A friendly lab who loves fetch.",
		"tags":        []string{"Friendly", "Good with kids"},
	}
}

func TestDogCrud(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	created, err := admin.createDog(sampleDog("Buddy"))
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != "available" {
		t.Fatalf("new dog should default to available, got %v", created.Status)
	}

	// Listing and fetching are public.
	anon := env.newClient()

	fetched, err := anon.getDog(created.Id)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Name != "Buddy" || fetched.Breed != "Labrador Retriever" {
		t.Fatalf("unexpected dog %v", fetched)
	}
	if len(fetched.Tags) != 2 || fetched.Tags[0] != "Friendly" || fetched.Tags[1] != "Good with kids" {
		t.Fatalf("unexpected tags %v", fetched.Tags)
	}

	dogs, err := anon.listDogs("")
	if err != nil {
		t.Fatal(err)
	}
	if len(dogs) != 1 {
		t.Fatalf("expected 1 dog, got %d", len(dogs))
	}

	updated, err := admin.updateDog(created.Id, map[string]interface{}{
		"status": "adopted", "description": "Found his forever home!",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "adopted" || updated.Description != "Found his forever home!" {
		t.Fatalf("unexpected update result %v", updated)
	}
	// Untouched fields survive a partial update.
	if updated.Name != "Buddy" || len(updated.Tags) != 2 {
		t.Fatalf("partial update clobbered other fields: %v", updated)
	}

	if err := admin.deleteDog(created.Id); err != nil {
		t.Fatal(err)
	}

	_, err = anon.getDog(created.Id)
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", err)
	}

	err = admin.deleteDog(created.Id)
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %v", err)
	}
}

func TestDogListFilters(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	seeds := []struct {
		name, size, gender, status string
	}{
		{"Rex", "Large", "Male", "available"},
		{"Daisy", "Small", "Female", "available"},
		{"Max", "Medium", "Male", "adopted"},
	}
	for _, seed := range seeds {
		body := sampleDog(seed.name)
		body["size"] = seed.size
		body["gender"] = seed.gender
		body["status"] = seed.status
		if _, err := admin.createDog(body); err != nil {
			t.Fatal(err)
		}
	}

	anon := env.newClient()

	available, err := anon.listDogs("?status=available")
	if err != nil {
		t.Fatal(err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 available dogs, got %d", len(available))
	}

	smallFemales, err := anon.listDogs("?size=Small&gender=Female")
	if err != nil {
		t.Fatal(err)
	}
	if len(smallFemales) != 1 || smallFemales[0].Name != "Daisy" {
		t.Fatalf("unexpected filter result %v", smallFemales)
	}
}

func TestDogValidation(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	_, err = admin.createDog(map[string]interface{}{
		"name": "", "breed": "", "size": "Gigantic", "gender": "Male",
	})
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	for _, field := range []string{"name", "breed", "size"} {
		if apiErr.fields[field] == "" {
			t.Fatalf("expected field error for %v, got %v", field, apiErr.fields)
		}
	}
}

func TestDogWriteEndpointsRequireAdmin(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("dogfan")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.createDog(sampleDog("Sneaky"))
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin create, got %v", err)
	}

	anon := env.newClient()
	_, err = anon.createDog(sampleDog("Sneaky"))
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous create, got %v", err)
	}
}
