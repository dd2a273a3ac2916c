package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"civicresolve-be/middlewares"
	"civicresolve-be/models"
	"civicresolve-be/repository/testutil"
	"civicresolve-be/services"
	authUtils "civicresolve-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type upload struct {
	folder   string
	filename string
	body     string
}

type fakeBlobStore struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (b *fakeBlobStore) Store(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, upload{folder: folder, filename: filename, body: string(data)})
	return "http://media.test/civic-issues/" + folder + "/" + filename, nil
}

func (b *fakeBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.uploads)
}

type apiFixture struct {
	router *gin.Engine
	codec  *authUtils.SessionCodec
	issues *testutil.MockIssueStore
	users  *testutil.MockUserStore
	blobs  *fakeBlobStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := authUtils.NewSessionCodec("api-secret")
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &apiFixture{
		codec:  codec,
		issues: testutil.NewMockIssueStore(),
		users:  testutil.NewMockUserStore(),
		blobs:  &fakeBlobStore{},
	}
	identity := services.NewIdentityService(f.users, testutil.NewMockOfficerStore(), codec, log)
	issueService := services.NewIssueService(f.issues, f.users, &testutil.RecordingPublisher{}, log)

	uc := NewUserController(identity)
	ac := NewAuthController(identity)
	ic := NewIssueController(issueService, f.blobs)
	citizen := middlewares.RequireCitizen(codec)
	officer := middlewares.RequireOfficer(codec)

	r := gin.New()
	r.POST("/api/users/register", uc.RegisterUser)
	r.POST("/api/users/login", uc.LoginUser)
	r.POST("/api/auth/register", ac.RegisterOfficer)
	r.POST("/api/auth/login", ac.LoginOfficer)

	issues := r.Group("/api/issues")
	issues.POST("/check-duplicate", ic.CheckDuplicate)
	issues.GET("/track/:ticketId", ic.TrackIssue)
	issues.GET("/stats", ic.Stats)
	issues.GET("/public-map", ic.PublicMap)
	issues.POST("/report", citizen, ic.ReportIssue)
	issues.GET("/my-issues", citizen, ic.MyIssues)
	issues.PUT("/feedback/:ticketId", citizen, ic.SubmitFeedback)
	issues.GET("/worker/tasks", citizen, ic.WorkerTasks)
	issues.PUT("/worker-complete/:id", citizen, ic.WorkerComplete)
	issues.GET("/admin/all", officer, ic.AllIssues)
	issues.PUT("/assign-dept/:id", officer, ic.AssignDepartment)
	issues.PUT("/:id/status", officer, ic.UpdateStatus)
	issues.GET("/dept/all", officer, ic.DepartmentIssues)
	issues.GET("/workers/:dept", officer, ic.WorkersByDepartment)
	issues.PUT("/assign-worker/:id", officer, ic.AssignWorker)

	f.router = r
	return f
}

func (f *apiFixture) token(t *testing.T, s models.Session) string {
	t.Helper()
	token, err := f.codec.Sign(s)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileField, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func reportFields() map[string]string {
	return map[string]string{
		"location":    `{"latitude":12.9716,"longitude":77.5946}`,
		"ward":        "Ward 7",
		"category":    "Water Leak",
		"description": "Pipe burst near the school",
		"isHazard":    "true",
	}
}

func TestCitizenRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(jsonRequest(t, http.MethodPost, "/api/users/register", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret1",
	}), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered map[string]any
	decode(t, w, &registered)
	assert.Equal(t, "citizen", registered["role"])
	assert.Equal(t, "None", registered["department"])
	assert.NotEmpty(t, registered["token"])
	assert.NotContains(t, w.Body.String(), "password")

	w = f.do(jsonRequest(t, http.MethodPost, "/api/users/register", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret1",
	}), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"conflict"`)
	assert.Equal(t, 1, f.users.Len())

	w = f.do(jsonRequest(t, http.MethodPost, "/api/users/login", map[string]string{
		"email": "asha@example.com", "password": "secret1",
	}), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(jsonRequest(t, http.MethodPost, "/api/users/login", map[string]string{
		"email": "asha@example.com", "password": "wrong-pass",
	}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(jsonRequest(t, http.MethodPost, "/api/users/register", map[string]string{
		"name": "Asha", "email": "not-an-email", "password": "123",
	}), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "validation_error", body["type"])
	assert.Contains(t, body["details"], "Email must be a valid email")
	assert.Contains(t, body["details"], "Password length must be greater than or equal to 6")
}

func TestRegisterRejectsOverlongPasswords(t *testing.T) {
	f := newAPIFixture(t)

	for name, password := range map[string]string{
		"73 ascii bytes":              strings.Repeat("a", 73),
		"40 runes but 80 utf-8 bytes": strings.Repeat("é", 40),
	} {
		t.Run(name, func(t *testing.T) {
			w := f.do(jsonRequest(t, http.MethodPost, "/api/users/register", map[string]string{
				"name": "Asha", "email": "asha@example.com", "password": password,
			}), "")
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var body map[string]any
			decode(t, w, &body)
			assert.Equal(t, "validation_error", body["type"])
		})
	}
	assert.Zero(t, f.users.Len())
}

func TestOfficerRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Chief", "email": "chief@city.gov", "password": "secret1",
	}), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "token")

	w = f.do(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "chief@city.gov", "password": "secret1",
	}), "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token   string         `json:"token"`
		Officer models.Officer `json:"officer"`
	}
	decode(t, w, &body)
	assert.Equal(t, models.RoleAdmin, body.Officer.Role)
	assert.Equal(t, models.DefaultWard, body.Officer.Ward)

	session, err := f.codec.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, models.SessionKindOfficer, session.Kind())
}

func TestReportIssue(t *testing.T) {
	f := newAPIFixture(t)
	citizen := models.CitizenSession{AccountID: primitive.NewObjectID().Hex(), Role: models.RoleCitizen}

	w := f.do(multipartRequest(t, http.MethodPost, "/api/issues/report", reportFields(), "issueImage", "leak.jpg"), f.token(t, citizen))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Message  string       `json:"message"`
		TicketID string       `json:"ticketId"`
		Issue    models.Issue `json:"issue"`
	}
	decode(t, w, &body)
	assert.Equal(t, "Reported", body.Message)
	assert.Regexp(t, `^CIV-[0-9A-F]{8}$`, body.TicketID)
	assert.Equal(t, models.StatusAssignedToDept, body.Issue.Status)
	assert.Equal(t, models.PriorityHigh, body.Issue.Priority)
	assert.True(t, body.Issue.IsHazard)
	assert.Equal(t, "http://media.test/civic-issues/issues/leak.jpg", body.Issue.ImageURL)

	require.Equal(t, 1, f.blobs.count())
	assert.Equal(t, "issues", f.blobs.uploads[0].folder)
	assert.Equal(t, "jpeg-bytes", f.blobs.uploads[0].body)
}

func TestReportIssueRejectsBadInputBeforeUpload(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t, models.CitizenSession{AccountID: primitive.NewObjectID().Hex(), Role: models.RoleCitizen})

	tests := map[string]func(map[string]string){
		"malformed location": func(m map[string]string) { m["location"] = "somewhere" },
		"partial location":   func(m map[string]string) { m["location"] = `{"latitude":12.9}` },
		"out of range":       func(m map[string]string) { m["location"] = `{"latitude":120,"longitude":77}` },
		"unknown category":   func(m map[string]string) { m["category"] = "Potholes" },
		"missing ward":       func(m map[string]string) { delete(m, "ward") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			fields := reportFields()
			mutate(fields)
			w := f.do(multipartRequest(t, http.MethodPost, "/api/issues/report", fields, "issueImage", "x.jpg"), token)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := f.do(multipartRequest(t, http.MethodPost, "/api/issues/report", reportFields(), "", ""), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, f.blobs.count())
	assert.Zero(t, f.issues.Len())
}

func TestReportIssueUploadFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.blobs.err = errors.New("minio unreachable")
	token := f.token(t, models.CitizenSession{AccountID: primitive.NewObjectID().Hex(), Role: models.RoleCitizen})

	w := f.do(multipartRequest(t, http.MethodPost, "/api/issues/report", reportFields(), "issueImage", "x.jpg"), token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "minio unreachable")
	assert.Zero(t, f.issues.Len())
}

func TestAuthBoundaries(t *testing.T) {
	f := newAPIFixture(t)
	citizenToken := f.token(t, models.CitizenSession{AccountID: primitive.NewObjectID().Hex(), Role: models.RoleCitizen})
	officerToken := f.token(t, models.OfficerSession{AccountID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin})

	w := f.do(multipartRequest(t, http.MethodPost, "/api/issues/report", reportFields(), "issueImage", "x.jpg"), officerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/admin/all", nil), citizenToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/admin/all", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/admin/all", nil), officerToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	assert.Zero(t, f.blobs.count())
}

func TestPublicEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.issues.Put(&models.Issue{
		TicketID: "CIV-ABCDEF12",
		Category: models.CategoryGarbage,
		Status:   models.StatusWorkInProgress,
		Location: models.NewGeoPoint(77.5946, 12.9716),
		ImageURL: "http://media.test/a.jpg",
	})

	w := f.do(jsonRequest(t, http.MethodPost, "/api/issues/check-duplicate", map[string]any{
		"lat": 12.97169, "lng": 77.5946, "category": "Garbage",
	}), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dupes []models.Issue
	decode(t, w, &dupes)
	assert.Len(t, dupes, 1)

	w = f.do(jsonRequest(t, http.MethodPost, "/api/issues/check-duplicate", map[string]any{
		"lat": 12.97169, "lng": 77.5946, "category": "Road Defect",
	}), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.do(jsonRequest(t, http.MethodPost, "/api/issues/check-duplicate", map[string]any{"category": "Garbage"}), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/track/CIV-ABCDEF12", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/track/CIV-00000000", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/public-map", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "ticketId")
	assert.Contains(t, w.Body.String(), "http://media.test/a.jpg")

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/stats", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.IssueStats
	decode(t, w, &stats)
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.Pending)
}

func TestOfficerWorkerCitizenFlow(t *testing.T) {
	f := newAPIFixture(t)
	garbage := models.DepartmentGarbage
	reporter := primitive.NewObjectID()
	worker := f.users.Add(models.User{Name: "Ravi", Email: "ravi@city.gov", Role: models.RoleWorker, Department: garbage})
	seeded := f.issues.Put(&models.Issue{
		TicketID:        "CIV-FLOW0001",
		ReportedBy:      reporter,
		Category:        models.CategoryOther,
		Status:          models.StatusReceived,
		CitizenFeedback: models.FeedbackPending,
	})
	id := seeded.ID.Hex()

	officerToken := f.token(t, models.OfficerSession{AccountID: primitive.NewObjectID().Hex(), Email: "chief@city.gov", Role: models.RoleAdmin})
	workerToken := f.token(t, models.CitizenSession{AccountID: worker.ID.Hex(), Role: models.RoleWorker, Department: garbage})
	citizenToken := f.token(t, models.CitizenSession{AccountID: reporter.Hex(), Role: models.RoleCitizen})

	w := f.do(jsonRequest(t, http.MethodPut, "/api/issues/assign-dept/"+id, map[string]string{"department": "Garbage"}), officerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/workers/Garbage", nil), officerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ravi")

	w = f.do(jsonRequest(t, http.MethodPut, "/api/issues/assign-worker/"+id, map[string]string{"workerId": worker.ID.Hex()}), officerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/issues/worker/tasks", nil), workerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CIV-FLOW0001")

	w = f.do(jsonRequest(t, http.MethodPut, "/api/issues/"+id+"/status", map[string]string{"status": "Work In Progress"}), officerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(multipartRequest(t, http.MethodPut, "/api/issues/worker-complete/"+id, map[string]string{
		"note": "Cleared", "resolutionCost": "450",
	}, "resolutionImage", "after.jpg"), workerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resolved models.Issue
	decode(t, w, &resolved)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	assert.Equal(t, 450.0, resolved.ResolutionCost)
	assert.Equal(t, "http://media.test/civic-issues/resolutions/after.jpg", resolved.ResolutionImageURL)

	w = f.do(jsonRequest(t, http.MethodPut, "/api/issues/feedback/CIV-FLOW0001", map[string]string{"feedback": "Unsatisfied"}), citizenToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var fb struct {
		Message string       `json:"message"`
		Issue   models.Issue `json:"issue"`
	}
	decode(t, w, &fb)
	assert.Equal(t, models.StatusEscalated, fb.Issue.Status)
	assert.Equal(t, "http://media.test/civic-issues/resolutions/after.jpg", fb.Issue.PreviousResolutionURL)
	assert.Empty(t, fb.Issue.ResolutionImageURL)

	history := f.issues.Get(seeded.ID).History
	require.Len(t, history, 5)
	assert.Equal(t, "chief@city.gov", history[0].ChangedBy)
	assert.Equal(t, models.ChangedByWorker, history[3].ChangedBy)
	assert.Equal(t, models.ChangedByFeedback, history[4].ChangedBy)
}

func TestUpdateStatusValidation(t *testing.T) {
	f := newAPIFixture(t)
	seeded := f.issues.Put(&models.Issue{TicketID: "CIV-STAT0001", Status: models.StatusReceived})
	officerToken := f.token(t, models.OfficerSession{AccountID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin})

	w := f.do(jsonRequest(t, http.MethodPut, "/api/issues/"+seeded.ID.Hex()+"/status", map[string]string{"status": "Done"}), officerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(jsonRequest(t, http.MethodPut, "/api/issues/not-an-id/status", map[string]string{"status": "Closed"}), officerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(multipartRequest(t, http.MethodPut, "/api/issues/"+seeded.ID.Hex()+"/status", map[string]string{
		"status": "Work Rejected", "rejectionReason": "Not municipal land",
	}, "", ""), officerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Not municipal land", f.issues.Get(seeded.ID).RejectionReason)
}

func TestWorkerCompleteRequiresWorker(t *testing.T) {
	f := newAPIFixture(t)
	seeded := f.issues.Put(&models.Issue{TicketID: "CIV-WORK0001", Status: models.StatusAssignedToWorker})
	citizenToken := f.token(t, models.CitizenSession{AccountID: primitive.NewObjectID().Hex(), Role: models.RoleCitizen})

	w := f.do(jsonRequest(t, http.MethodPut, "/api/issues/worker-complete/"+seeded.ID.Hex(), map[string]string{"note": "done"}), citizenToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.StatusAssignedToWorker, f.issues.Get(seeded.ID).Status)
}
