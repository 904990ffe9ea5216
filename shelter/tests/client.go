package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// apiError carries the status and message of a failed request so tests can
// assert on both.
type apiError struct {
	status  int
	message string
	fields  map[string]string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed with status %d: %v", e.status, e.message)
}

func asApiError(err error) (*apiError, bool) {
	apiErr, ok := err.(*apiError)
	return apiErr, ok
}

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

func (r *httpTestRequest) Body(body io.Reader) *httpTestRequest {
	r.body = body
	return r
}

// response data will be parsed into result, passing nil indicates that no
// result is expected.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.json != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Add(k, v)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("error parsing %v response from endpoint %v (status %d): %w", r.method, r.endpoint, res.StatusCode, err)
	}

	if res.StatusCode != http.StatusOK || !env.Success {
		return &apiError{status: res.StatusCode, message: env.Message, fields: env.Errors}
	}

	if result != nil {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("error parsing %v response data from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	return c.request("GET", endpoint)
}

func (c *client) Post(endpoint string) *httpTestRequest {
	return c.request("POST", endpoint)
}

func (c *client) Put(endpoint string) *httpTestRequest {
	return c.request("PUT", endpoint)
}

func (c *client) Patch(endpoint string) *httpTestRequest {
	return c.request("PATCH", endpoint)
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	return c.request("DELETE", endpoint)
}

func (c *client) request(method, endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, method, endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type principal struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Admin    bool   `json:"admin"`
	Status   string `json:"status"`
}

type loginResult struct {
	Token string    `json:"token"`
	User  principal `json:"user"`
}

func (c *client) register(username, email, password string) error {
	body := map[string]string{
		"username": username, "email": email, "password": password,
	}
	return c.Post("/auth/user/register").Json(body).Do(nil)
}

func (c *client) registerAdmin(username, email, password, secretKey string) error {
	body := map[string]string{
		"username": username, "email": email, "password": password, "secretKey": secretKey,
	}
	return c.Post("/auth/admin/register").Json(body).Do(nil)
}

func (c *client) login(username, password string) error {
	return c.loginAt("/auth/user/login", username, password)
}

func (c *client) adminLogin(username, password string) error {
	return c.loginAt("/auth/admin/login", username, password)
}

func (c *client) loginAt(endpoint, username, password string) error {
	body := map[string]string{"username": username, "password": password}

	var res loginResult
	err := c.Post(endpoint).Json(body).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res.Token
	c.userId = res.User.Id

	return nil
}

type dog struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Breed       string   `json:"breed"`
	Age         string   `json:"age"`
	Size        string   `json:"size"`
	Gender      string   `json:"gender"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	RescueId    *string  `json:"rescueId"`
}

func (c *client) createDog(body map[string]interface{}) (dog, error) {
	var res dog
	err := c.Post("/dogs/").Json(body).Do(&res)
	return res, err
}

func (c *client) getDog(dogId string) (dog, error) {
	var res dog
	err := c.Get(fmt.Sprintf("/dogs/%v", dogId)).Do(&res)
	return res, err
}

func (c *client) listDogs(query string) ([]dog, error) {
	var res []dog
	err := c.Get("/dogs/" + query).Do(&res)
	return res, err
}

func (c *client) updateDog(dogId string, body map[string]interface{}) (dog, error) {
	var res dog
	err := c.Put(fmt.Sprintf("/dogs/%v", dogId)).Json(body).Do(&res)
	return res, err
}

func (c *client) deleteDog(dogId string) error {
	return c.Delete(fmt.Sprintf("/dogs/%v", dogId)).Do(nil)
}

type volunteer struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	VolunteerType string `json:"volunteerType"`
	Status        string `json:"status"`
}

func (c *client) createVolunteer(body map[string]interface{}) (volunteer, error) {
	var res volunteer
	err := c.Post("/volunteers/").Json(body).Do(&res)
	return res, err
}

func (c *client) listVolunteers() ([]volunteer, error) {
	var res []volunteer
	err := c.Get("/volunteers/").Do(&res)
	return res, err
}

func (c *client) updateVolunteerStatus(volunteerId, status string) (volunteer, error) {
	var res volunteer
	err := c.Patch(fmt.Sprintf("/volunteers/%v/status", volunteerId)).Json(map[string]string{"status": status}).Do(&res)
	return res, err
}

type submission struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	Breed        string   `json:"breed"`
	Gender       string   `json:"gender"`
	Size         string   `json:"size"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	ContactEmail string   `json:"contactEmail"`
	ImageUrls    []string `json:"imageUrls"`
	Status       string   `json:"status"`
	UserId       *string  `json:"userId"`
}

func (c *client) createSubmission(body map[string]interface{}) (submission, error) {
	var res submission
	err := c.Post("/rescue-submissions/").Json(body).Do(&res)
	return res, err
}

func (c *client) listSubmissions() ([]submission, error) {
	var res []submission
	err := c.Get("/rescue-submissions/").Do(&res)
	return res, err
}

func (c *client) updateSubmission(submissionId string, body map[string]interface{}) (submission, error) {
	var res submission
	err := c.Put(fmt.Sprintf("/rescue-submissions/%v", submissionId)).Json(body).Do(&res)
	return res, err
}

type application struct {
	Id             string `json:"id"`
	DogId          string `json:"dogId"`
	Dog            *dog   `json:"dog"`
	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

func (c *client) createApplication(body map[string]interface{}) (application, error) {
	var res application
	err := c.Post("/applications/").Json(body).Do(&res)
	return res, err
}

func (c *client) myApplications() ([]application, error) {
	var res []application
	err := c.Get("/applications/my-applications").Do(&res)
	return res, err
}

func (c *client) listApplications() ([]application, error) {
	var res []application
	err := c.Get("/applications/").Do(&res)
	return res, err
}

func (c *client) getApplication(applicationId string) (application, error) {
	var res application
	err := c.Get(fmt.Sprintf("/applications/%v", applicationId)).Do(&res)
	return res, err
}

func (c *client) withdrawApplication(applicationId string) (application, error) {
	var res application
	err := c.Patch(fmt.Sprintf("/applications/%v/withdraw", applicationId)).Do(&res)
	return res, err
}

func (c *client) updateApplicationStatus(applicationId, status string) (application, error) {
	var res application
	err := c.Patch(fmt.Sprintf("/applications/%v/status", applicationId)).Json(map[string]string{"status": status}).Do(&res)
	return res, err
}
