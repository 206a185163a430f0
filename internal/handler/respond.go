package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
)

// listParams are the common list query parameters. Limit of zero
// means unpaginated.
type listParams struct {
	Search string
	Brand  string
	Page   int
	Limit  int
}

func parseListParams(c echo.Context) listParams {
	p := listParams{
		Search: c.QueryParam("search"),
		Brand:  c.QueryParam("brand"),
		Page:   1,
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	return p
}

// offset returns the row offset for the current page.
func (p listParams) offset() int {
	return (p.Page - 1) * p.Limit
}

// pageMeta computes the pagination envelope. Nil when the request was
// unpaginated.
func pageMeta(total int64, p listParams) echo.Map {
	if p.Limit == 0 {
		return nil
	}

	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))

	var previous, next interface{}
	if p.Page > 1 {
		previous = p.Page - 1
	}
	if p.Page < totalPages {
		next = p.Page + 1
	}

	return echo.Map{
		"totalPages":   totalPages,
		"currentPage":  p.Page,
		"previousPage": previous,
		"nextPage":     next,
	}
}

// listResponse renders the standard list envelope.
func listResponse(c echo.Context, message string, total int64, p listParams, data interface{}) error {
	var pagination interface{}
	if meta := pageMeta(total, p); meta != nil {
		pagination = meta
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    message,
		"data_found": total,
		"pagination": pagination,
		"data":       data,
	})
}

// created renders a 201 envelope with the stored entity.
func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// ok renders a 200 envelope, with optional data.
func ok(c echo.Context, message string, data interface{}) error {
	resp := echo.Map{
		"success": true,
		"message": message,
	}
	if data != nil {
		resp["data"] = data
	}
	return c.JSON(http.StatusOK, resp)
}

// bindIDs parses the batch-delete body {"ids": [...]}.
func bindIDs(c echo.Context) ([]string, error) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&req); err != nil {
		return nil, apperr.BadRequest("Invalid request body")
	}
	if len(req.IDs) == 0 {
		return nil, apperr.BadRequest("No ids provided")
	}
	return req.IDs, nil
}
