package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/middleware"
	"github.com/justsurfingit/connect-jobs/internal/ratelimit"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/justsurfingit/connect-jobs/internal/repository/memory"
	"github.com/justsurfingit/connect-jobs/internal/services"
	"github.com/justsurfingit/connect-jobs/internal/session"
	"github.com/justsurfingit/connect-jobs/internal/upload"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	dtos.RegisterWithGin()
}

const cookieName = "connect_session"

type server struct {
	t      *testing.T
	engine *gin.Engine
	store  repository.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	store := memory.New()
	sessions := session.NewMemoryStore()
	resumes := upload.ResumePolicy(upload.DefaultResumeLimit)
	pictures := upload.PicturePolicy(upload.DefaultPictureLimit)

	apps := services.NewApplicationService(store, resumes, services.DecisionEmails{FrontendURL: "http://localhost:5173"}, log)
	jobs := services.NewJobService(store, log)
	auth := services.NewAuthService(store.Users, sessions, time.Hour, log)
	users := services.NewUserService(store.Users, pictures)

	engine := NewRouter(RouterConfig{
		Log:         log,
		FrontendURL: "http://localhost:5173",
		Authenticator: &middleware.Authenticator{
			Sessions:   sessions,
			Users:      store.Users,
			CookieName: cookieName,
			Log:        log,
		},
		ApplyLimiter:   ratelimit.NewMemoryLimiter(100, time.Minute),
		MaxUploadBytes: upload.DefaultResumeLimit,
		Jobs:           NewJobHandler(jobs, nil, log),
		Applications:   NewApplicationHandler(apps, upload.NewIntake(resumes), log),
		Users:          NewUserHandler(users, upload.NewIntake(pictures), log),
		Auth:           NewAuthHandler(auth, cookieName, false, log),
		Health:         &HealthHandler{},
	})
	return &server{t: t, engine: engine, store: store}
}

func (s *server) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *server) json(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

// signup registers and logs in, returning the bearer token.
func (s *server) signup(email, role string) string {
	w := s.json(http.MethodPost, "/api/auth/register", "", gin.H{
		"fullName": "Test " + role,
		"email":    email,
		"password": "correct-horse",
		"role":     role,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.json(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func (s *server) postJob(token string) string {
	w := s.json(http.MethodPost, "/api/jobs", token, gin.H{
		"title":            "Backend Engineer",
		"company":          "Acme",
		"jobType":          "Full-time",
		"employmentMode":   "Remote",
		"description":      "Build services",
		"responsibilities": []string{"Write Go"},
		"requirements":     []string{"3 years"},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Job.ID
}

func (s *server) apply(token, jobID string, size int) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="cv.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(s.t, err)
	data := bytes.Repeat([]byte("a"), size)
	copy(data, "%PDF-1.4\n")
	_, err = part.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/applications/"+jobID+"/apply", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, token)
}

func applicationID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Application struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"application"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Application.ID)
	return resp.Application.ID
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSessionCookieFlow(t *testing.T) {
	s := newServer(t)
	w := s.json(http.MethodPost, "/api/auth/register", "", gin.H{
		"fullName": "Ada",
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	w = s.do(req, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isAuthenticated":true`)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusOK, s.do(req, "").Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusUnauthorized, s.do(req, "").Code)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.json(http.MethodGet, "/api/users/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.json(http.MethodGet, "/api/applications/my-applications", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.json(http.MethodGet, "/api/users/me", "bogus", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.json(http.MethodGet, "/api/users/"+uuid.NewString(), "", nil).Code)
}

func TestUserProfiles(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com", "jobseeker")

	w := s.json(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "ada@example.com", me.Email)
	assert.NotContains(t, w.Body.String(), "correct-horse")

	w = s.json(http.MethodGet, "/api/users/"+me.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, s.json(http.MethodGet, "/api/users/"+uuid.NewString(), token, nil).Code)
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	employer := s.signup("boss@example.com", "employer")
	seeker := s.signup("seeker@example.com", "jobseeker")
	stranger := s.signup("other@example.com", "employer")
	jobID := s.postJob(employer)

	w := s.apply(seeker, jobID, 1_200_000)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appID := applicationID(t, w)

	assert.Equal(t, http.StatusConflict, s.apply(seeker, jobID, 2048).Code)
	assert.Equal(t, http.StatusForbidden, s.apply(employer, jobID, 2048).Code)

	w = s.json(http.MethodGet, "/api/users/notifications", employer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Backend Engineer")

	w = s.json(http.MethodGet, "/api/applications/"+appID+"/resume", employer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, 1_200_000, w.Body.Len())

	assert.Equal(t, http.StatusForbidden, s.json(http.MethodPut, "/api/applications/"+appID+"/approve", stranger, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.json(http.MethodPut, "/api/applications/"+appID+"/approve", seeker, nil).Code)

	w = s.json(http.MethodPut, "/api/applications/"+appID+"/approve", employer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"approved"`)
	assert.Equal(t, http.StatusConflict, s.json(http.MethodPut, "/api/applications/"+appID+"/reject", employer, nil).Code)
	assert.Len(t, memory.Messages(s.store), 1)

	w = s.json(http.MethodGet, "/api/applications/my-applications", seeker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), appID)

	assert.Equal(t, http.StatusNotFound, s.json(http.MethodDelete, "/api/applications/"+appID, s.signup("x@example.com", "jobseeker"), nil).Code)
	assert.Equal(t, http.StatusOK, s.json(http.MethodDelete, "/api/applications/"+appID, seeker, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.json(http.MethodDelete, "/api/applications/"+appID, seeker, nil).Code)
}

func TestApplyRejectsOversizeResume(t *testing.T) {
	s := newServer(t)
	employer := s.signup("boss@example.com", "employer")
	seeker := s.signup("seeker@example.com", "jobseeker")
	jobID := s.postJob(employer)

	w := s.apply(seeker, jobID, upload.DefaultResumeLimit+1)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	w = s.json(http.MethodGet, "/api/applications/my-applications", seeker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestDeleteJobCascadesApplications(t *testing.T) {
	s := newServer(t)
	employer := s.signup("boss@example.com", "employer")
	seeker := s.signup("seeker@example.com", "jobseeker")
	jobID := s.postJob(employer)
	require.Equal(t, http.StatusCreated, s.apply(seeker, jobID, 4096).Code)

	assert.Equal(t, http.StatusNotFound, s.json(http.MethodDelete, "/api/jobs/"+jobID, s.signup("rival@example.com", "employer"), nil).Code)

	w := s.json(http.MethodDelete, "/api/jobs/"+jobID, employer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "deletedJob")

	assert.Equal(t, http.StatusNotFound, s.json(http.MethodGet, "/api/jobs/"+jobID, "", nil).Code)

	w = s.json(http.MethodGet, "/api/applications/my-applications", seeker, nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.json(http.MethodGet, "/api/users/notifications", seeker, nil)
	assert.Contains(t, w.Body.String(), "Backend Engineer")
}

func TestJobValidationAndExtraction(t *testing.T) {
	s := newServer(t)
	employer := s.signup("boss@example.com", "employer")

	w := s.json(http.MethodPost, "/api/jobs", employer, gin.H{"title": "x", "company": "y", "jobType": "Gig"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json(http.MethodPost, "/api/jobs/extract", employer, gin.H{"raw_html": "<h1>Engineer</h1>"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	assert.Equal(t, http.StatusBadRequest, s.json(http.MethodGet, "/api/jobs/not-a-uuid", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.json(http.MethodGet, "/api/nowhere", "", nil).Code)
}

func TestJobDetailHidesApplicantsFromOthers(t *testing.T) {
	s := newServer(t)
	employer := s.signup("boss@example.com", "employer")
	seeker := s.signup("seeker@example.com", "jobseeker")
	rival := s.signup("rival@example.com", "employer")
	jobID := s.postJob(employer)
	require.Equal(t, http.StatusCreated, s.apply(seeker, jobID, 4096).Code)

	for _, token := range []string{"", rival, seeker, "stale-token"} {
		w := s.json(http.MethodGet, "/api/jobs/"+jobID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "seeker@example.com")
		assert.NotContains(t, w.Body.String(), "boss@example.com")
		assert.Contains(t, w.Body.String(), `"applicationCount":1`)
	}

	w := s.json(http.MethodGet, "/api/jobs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "seeker@example.com")
	assert.NotContains(t, w.Body.String(), "boss@example.com")
	assert.Contains(t, w.Body.String(), `"applicationCount":1`)

	w = s.json(http.MethodGet, "/api/jobs/"+jobID, employer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var job struct {
		Applications []struct {
			User struct {
				FullName string `json:"fullName"`
				Email    string `json:"email"`
			} `json:"user"`
		} `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	require.Len(t, job.Applications, 1)
	assert.Equal(t, "seeker@example.com", job.Applications[0].User.Email)
	assert.Equal(t, "Test jobseeker", job.Applications[0].User.FullName)
}
