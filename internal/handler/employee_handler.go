package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/payroll/internal/apperror"
	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/internal/service"
	"github.com/locvowork/payroll/internal/service/serviceutils"
	"github.com/locvowork/payroll/pkg/hal"
	"github.com/locvowork/payroll/pkg/simpleexcel"
)

// EmployeeRequest is the body accepted by create and replace. A non-empty Name
// takes precedence over FirstName and LastName.
type EmployeeRequest struct {
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// ToEmployee maps the body onto a transient employee.
func (r EmployeeRequest) ToEmployee() (domain.Employee, error) {
	e := domain.NewEmployee(r.FirstName, r.LastName, r.Role)
	if r.Name != "" {
		if err := e.SetName(r.Name); err != nil {
			return domain.Employee{}, apperror.Wrap(apperror.CodeValidation, err.Error(), err)
		}
	}
	return e, nil
}

type EmployeeHandler struct {
	svc       service.EmployeeService
	assembler EmployeeModelAssembler
	// baseURL overrides the request derived scheme://host when set.
	baseURL string
}

func NewEmployeeHandler(svc service.EmployeeService, baseURL string) *EmployeeHandler {
	return &EmployeeHandler{svc: svc, baseURL: baseURL}
}

// Register mounts the employee routes on g.
func (h *EmployeeHandler) Register(g *echo.Group) {
	g.GET("", h.ListHandler)
	g.POST("", h.CreateHandler)
	g.GET("/search", h.SearchHandler)
	g.GET("/export", h.ExportHandler)
	g.GET("/:id", h.GetHandler)
	g.PUT("/:id", h.ReplaceHandler)
	g.DELETE("/:id", h.DeleteHandler)
}

func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	employees, err := h.svc.List(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to list employees", err)
	}

	base := h.base(c)
	return serviceutils.ResponseHAL(c, http.StatusOK, h.assembler.ToCollectionModel(base, EmployeesURI(base), employees))
}

func (h *EmployeeHandler) GetHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return serviceutils.ResponseError(c, "Invalid employee ID", err)
	}

	emp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to get employee", err)
	}

	return serviceutils.ResponseHAL(c, http.StatusOK, h.assembler.ToModel(h.base(c), emp))
}

func (h *EmployeeHandler) CreateHandler(c echo.Context) error {
	emp, err := bindEmployee(c)
	if err != nil {
		return serviceutils.ResponseError(c, "Invalid request body", err)
	}

	saved, err := h.svc.Create(c.Request().Context(), emp)
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to create employee", err)
	}

	return h.created(c, saved)
}

func (h *EmployeeHandler) ReplaceHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return serviceutils.ResponseError(c, "Invalid employee ID", err)
	}

	emp, err := bindEmployee(c)
	if err != nil {
		return serviceutils.ResponseError(c, "Invalid request body", err)
	}

	saved, err := h.svc.Replace(c.Request().Context(), id, emp)
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to replace employee", err)
	}

	return h.created(c, saved)
}

func (h *EmployeeHandler) DeleteHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return serviceutils.ResponseError(c, "Invalid employee ID", err)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return serviceutils.ResponseError(c, "Failed to delete employee", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *EmployeeHandler) SearchHandler(c echo.Context) error {
	q := c.QueryParam("q")

	employees, err := h.svc.Search(c.Request().Context(), q)
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to search employees", err)
	}

	base := h.base(c)
	return serviceutils.ResponseHAL(c, http.StatusOK, h.assembler.ToCollectionModel(base, EmployeeSearchURI(base, q), employees))
}

func (h *EmployeeHandler) ExportHandler(c echo.Context) error {
	// rendered into memory first so a failure can still produce a JSON error
	buf := new(bytes.Buffer)
	if err := h.svc.Export(c.Request().Context(), buf); err != nil {
		return serviceutils.ResponseError(c, "Failed to generate excel file", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="employees.xlsx"`)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(buf.Len()))
	return c.Blob(http.StatusOK, simpleexcel.ContentType, buf.Bytes())
}

// created answers 201 with the representation and its self link as Location.
func (h *EmployeeHandler) created(c echo.Context, e domain.Employee) error {
	model := h.assembler.ToModel(h.base(c), e)
	self, _ := model.Links.Href(hal.RelSelf)
	c.Response().Header().Set(echo.HeaderLocation, self)
	return serviceutils.ResponseHAL(c, http.StatusCreated, model)
}

func (h *EmployeeHandler) base(c echo.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	return c.Scheme() + "://" + c.Request().Host
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Wrap(apperror.CodeValidation, "Employee ID must be a positive integer", err)
	}
	return id, nil
}

func bindEmployee(c echo.Context) (domain.Employee, error) {
	var req EmployeeRequest
	if err := c.Bind(&req); err != nil {
		return domain.Employee{}, apperror.Wrap(apperror.CodeValidation, "Malformed employee body", err)
	}
	return req.ToEmployee()
}
