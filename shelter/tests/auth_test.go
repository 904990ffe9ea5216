package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 5; i++ {
		username := fmt.Sprintf("user%d", i)
		email := fmt.Sprintf("user%d@mail.com", i)
		password := fmt.Sprintf("user%d_password", i)

		client := env.newClient()
		if err := client.register(username, email, password); err != nil {
			t.Fatal(err)
		}

		err := client.register(username, email, password)
		apiErr, ok := asApiError(err)
		if !ok || apiErr.status != http.StatusConflict {
			t.Fatalf("duplicate registration should return 409, got %v", err)
		}

		if err := client.login(username, "wrong_password"); err == nil {
			t.Fatal("login should fail with wrong password")
		}

		if err := client.login(username, password); err != nil {
			t.Fatal(err)
		}

		var info principal
		if err := client.Get("/auth/user/verify").Do(&info); err != nil {
			t.Fatal(err)
		}
		if info.Username != username || info.Email != email || info.Id != client.userId || info.Admin {
			t.Fatalf("invalid principal info %v", info)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestEnv(t)
	client := env.newClient()

	err := client.Post("/auth/user/register").Json(map[string]string{
		"username": "ab", "email": "not-an-email", "password": "123",
	}).Do(nil)

	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if apiErr.fields["username"] == "" || apiErr.fields["email"] == "" || apiErr.fields["password"] == "" {
		t.Fatalf("expected field errors for username, email, and password, got %v", apiErr.fields)
	}
}

// The login error must not reveal whether the username exists, whether the
// password was wrong, or whether the account is disabled.
func TestLoginDoesNotRevealAccountState(t *testing.T) {
	env := setupTestEnv(t)

	client := env.newClient()
	if err := client.register("realuser", "realuser@mail.com", "real_password"); err != nil {
		t.Fatal(err)
	}

	rawLogin := func(username, password string) (int, string) {
		body, err := json.Marshal(map[string]string{"username": username, "password": password})
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest("POST", "/auth/user/login", bytes.NewReader(body))
		req.Header.Add("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.api.ServeHTTP(w, req)
		return w.Code, w.Body.String()
	}

	wrongPasswordStatus, wrongPasswordBody := rawLogin("realuser", "bad_password")
	unknownUserStatus, unknownUserBody := rawLogin("ghostuser", "bad_password")

	if wrongPasswordStatus != http.StatusUnauthorized || unknownUserStatus != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrongPasswordStatus, unknownUserStatus)
	}
	if wrongPasswordBody != unknownUserBody {
		t.Fatalf("response bodies differ: %q vs %q", wrongPasswordBody, unknownUserBody)
	}

	// A disabled account is indistinguishable from bad credentials.
	result := env.db.Exec("UPDATE users SET status = 'disabled' WHERE username = 'realuser'")
	if result.Error != nil {
		t.Fatal(result.Error)
	}

	disabledStatus, disabledBody := rawLogin("realuser", "real_password")
	if disabledStatus != http.StatusUnauthorized || disabledBody != wrongPasswordBody {
		t.Fatalf("disabled account response differs: status %d body %q", disabledStatus, disabledBody)
	}
}

func TestAdminRegistrationRequiresSecretKey(t *testing.T) {
	env := setupTestEnv(t)
	client := env.newClient()

	err := client.registerAdmin("wannabe", "wannabe@mail.com", "password123", "wrong-key")
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad secret key, got %v", err)
	}

	if err := client.registerAdmin("realadmin", "realadmin@mail.com", "password123", adminSecretKey); err != nil {
		t.Fatal(err)
	}

	if err := client.adminLogin("realadmin", "password123"); err != nil {
		t.Fatal(err)
	}

	var info principal
	if err := client.Get("/auth/admin/verify").Do(&info); err != nil {
		t.Fatal(err)
	}
	if !info.Admin {
		t.Fatal("registered admin should have the admin role")
	}
}

func TestAdminLoginRejectsRegularUsers(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("regular")
	if err != nil {
		t.Fatal(err)
	}

	// Admin login with valid user credentials returns the same generic 401
	// as bad credentials.
	err = user.adminLogin("regular", "regular_password")
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusUnauthorized || apiErr.message != "invalid credentials" {
		t.Fatalf("expected generic 401, got %v", err)
	}

	// A regular user token cannot pass the admin verify endpoint.
	err = user.Get("/auth/admin/verify").Do(nil)
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	env := setupTestEnv(t)
	client := env.newClient()

	err := client.Get("/auth/user/verify").Do(nil)
	apiErr, ok := asApiError(err)
	if !ok || apiErr.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}

	err = client.Get("/applications/my-applications").Do(nil)
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}

	badToken := client.Get("/auth/user/verify").Auth("not-a-real-token")
	err = badToken.Do(nil)
	apiErr, ok = asApiError(err)
	if !ok || apiErr.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %v", err)
	}
}
