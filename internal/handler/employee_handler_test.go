package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/internal/repository"
	"github.com/locvowork/payroll/internal/service"
	"github.com/locvowork/payroll/internal/service/serviceutils"
	"github.com/locvowork/payroll/pkg/hal"
	"github.com/locvowork/payroll/pkg/simpleexcel"
)

type employeeDoc struct {
	ID        int64                        `json:"id"`
	FirstName string                       `json:"firstName"`
	LastName  string                       `json:"lastName"`
	Role      string                       `json:"role"`
	Name      string                       `json:"name"`
	Links     map[string]map[string]string `json:"_links"`
}

type collectionDoc struct {
	Embedded struct {
		EmployeeList []employeeDoc `json:"employeeList"`
	} `json:"_embedded"`
	Links map[string]map[string]string `json:"_links"`
}

type testServer struct {
	e    *echo.Echo
	repo domain.EmployeeRepository
}

// newTestServer seeds Bilbo Baggins as employee 1.
func newTestServer(t *testing.T, baseURL string) *testServer {
	t.Helper()

	repo := repository.NewMemoryEmployeeRepository()
	_, err := repo.Save(testContext(t), domain.NewEmployee("Bilbo", "Baggins", "burglar"))
	require.NoError(t, err)

	exporter, err := service.NewEmployeeExporter("")
	require.NoError(t, err)

	e := echo.New()
	NewEmployeeHandler(service.NewEmployeeService(repo, nil, exporter), baseURL).Register(e.Group("/employees"))
	e.GET("/healthcheck", HealthcheckHandler)
	return &testServer{e: e, repo: repo}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateEmployee_AfterSeed(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodPost, "/employees", `{"name":"Frodo Baggins","role":"thief"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, hal.MediaType, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "http://example.com/employees/2", rec.Header().Get(echo.HeaderLocation))

	doc := decode[employeeDoc](t, rec)
	assert.Equal(t, int64(2), doc.ID)
	assert.Equal(t, "Frodo Baggins", doc.Name)
	assert.Equal(t, "Frodo", doc.FirstName)
	assert.Equal(t, "Baggins", doc.LastName)
	assert.Equal(t, "thief", doc.Role)
	assert.Contains(t, doc.Links["self"]["href"], "/employees/2")
	assert.Equal(t, "http://example.com/employees", doc.Links["employees"]["href"])
}

func TestCreateEmployee_WithFirstAndLastName(t *testing.T) {
	srv := newTestServer(t, "https://payroll.example.org")

	rec := srv.do(t, http.MethodPost, "/employees", `{"firstName":"Samwise","lastName":"Gamgee","role":"gardener"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://payroll.example.org/employees/2", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, "Samwise Gamgee", decode[employeeDoc](t, rec).Name)
}

func TestCreateEmployee_BadBodies(t *testing.T) {
	testCases := map[string]string{
		"name without space": `{"name":"Gandalf","role":"wizard"}`,
		"malformed json":     `{"name":`,
	}

	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, "")

			rec := srv.do(t, http.MethodPost, "/employees", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, decode[serviceutils.ErrorResponse](t, rec).Success)

			all, err := srv.repo.FindAll(testContext(t))
			require.NoError(t, err)
			assert.Len(t, all, 1, "nothing is stored")
		})
	}
}

func TestGetEmployee(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodGet, "/employees/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[employeeDoc](t, rec)
	assert.Equal(t, "Bilbo Baggins", doc.Name)
	assert.Equal(t, "http://example.com/employees/1", doc.Links["self"]["href"])
}

func TestGetEmployee_Errors(t *testing.T) {
	testCases := map[string]struct {
		target     string
		wantStatus int
		wantError  string
	}{
		"unknown id":     {target: "/employees/99", wantStatus: http.StatusNotFound, wantError: "Could not find employee 99"},
		"non numeric id": {target: "/employees/abc", wantStatus: http.StatusBadRequest},
		"zero id":        {target: "/employees/0", wantStatus: http.StatusBadRequest},
		"negative id":    {target: "/employees/-3", wantStatus: http.StatusBadRequest},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, "")

			rec := srv.do(t, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, decode[serviceutils.ErrorResponse](t, rec).Error)
			}
		})
	}
}

func TestListEmployees(t *testing.T) {
	srv := newTestServer(t, "")
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/employees", `{"name":"Frodo Baggins","role":"thief"}`).Code)

	rec := srv.do(t, http.MethodGet, "/employees", "")

	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[collectionDoc](t, rec)
	require.Len(t, doc.Embedded.EmployeeList, 2)
	assert.Equal(t, "Bilbo Baggins", doc.Embedded.EmployeeList[0].Name)
	assert.Equal(t, "Frodo Baggins", doc.Embedded.EmployeeList[1].Name)
	assert.Equal(t, "http://example.com/employees", doc.Links["self"]["href"])
}

func TestReplaceEmployee(t *testing.T) {
	t.Run("existing id", func(t *testing.T) {
		srv := newTestServer(t, "")

		rec := srv.do(t, http.MethodPut, "/employees/1", `{"name":"Bilbo Baggins","role":"ring bearer"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "http://example.com/employees/1", rec.Header().Get(echo.HeaderLocation))
		doc := decode[employeeDoc](t, rec)
		assert.Equal(t, int64(1), doc.ID)
		assert.Equal(t, "ring bearer", doc.Role)

		got := decode[employeeDoc](t, srv.do(t, http.MethodGet, "/employees/1", ""))
		assert.Equal(t, "ring bearer", got.Role)
	})

	t.Run("missing id creates it", func(t *testing.T) {
		srv := newTestServer(t, "")

		rec := srv.do(t, http.MethodPut, "/employees/7", `{"firstName":"Samwise","lastName":"Gamgee","role":"gardener"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "http://example.com/employees/7", rec.Header().Get(echo.HeaderLocation))
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/employees/7", "").Code)
	})

	t.Run("bad body", func(t *testing.T) {
		srv := newTestServer(t, "")

		rec := srv.do(t, http.MethodPut, "/employees/1", `{"name":"Bilbo"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteEmployee(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodDelete, "/employees/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/employees/1", "").Code)
	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/employees/1", "").Code)
}

func TestSearchEmployees_WithoutIndex(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodGet, "/employees/search?q=bilbo", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportEmployees(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodGet, "/employees/export", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, simpleexcel.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "employees.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue("Employees", "D3")
	require.NoError(t, err)
	assert.Equal(t, "Bilbo Baggins", value)
}

func TestHealthcheck(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
