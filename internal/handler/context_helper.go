package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

// claimsFromContext returns the caller's claims. Services reject nil claims as
// unauthorized, so handlers pass the value through unchecked.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// bindJSON decodes the body into dest and writes a validation error when it fails.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid payload"))
		return false
	}
	return true
}

// withMeta returns the response meta collected by middleware.WithResponseMeta.
func withMeta(c *gin.Context) map[string]interface{} {
	return middleware.ExtractMeta(c)
}

// pageFromQuery reads limit and offset from the query string.
func pageFromQuery(c *gin.Context) (models.Page, bool) {
	var page models.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid pagination"))
		return page, false
	}
	if page.Limit < 0 || page.Offset < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit and offset must not be negative"))
		return page, false
	}
	return page.Normalized(), true
}

// pageMeta merges the applied window into the request meta.
func pageMeta(c *gin.Context, page models.Page, total int) map[string]interface{} {
	meta := map[string]interface{}{}
	for k, v := range withMeta(c) {
		meta[k] = v
	}
	meta["limit"] = page.Limit
	meta["offset"] = page.Offset
	meta["total"] = total
	return meta
}

// pagedList serves a listing that takes the caller's claims and a query window.
func pagedList[T any](c *gin.Context, key string, list func(context.Context, *models.JWTClaims, models.Page) ([]T, int, error)) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	items, total, err := list(c.Request.Context(), claimsFromContext(c), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, key, items, total, pageMeta(c, page, total))
}
