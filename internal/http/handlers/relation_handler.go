// Favorite and shopping-cart HTTP handlers.
//
//   - POST/DELETE /recipes/{id}/favorite/
//   - POST/DELETE /recipes/{id}/shopping_cart/
//   - GET         /recipes/shopping_cart/
//   - GET         /recipes/download_shopping_cart/  (weak ETag, may return 304)
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-foodgram-backend/internal/services"
)

// RecipeSummaryListResponse wraps a page of recipe summaries.
type RecipeSummaryListResponse struct {
	Results    []services.RecipeSummary `json:"results"`
	Pagination Pagination               `json:"pagination"`
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Add a recipe to favorites
// @Tags        Favorites
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Recipe id"
// @Success     201  {object}  services.RecipeSummary
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already in favorites"
// @Router      /recipes/{id}/favorite/ [post]
func (h *Handlers) AddFavorite(c *gin.Context) {
	h.addRelation(c, h.relations.AddFavorite)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a recipe from favorites
// @Tags        Favorites
// @Security    BearerAuth
// @Param       id   path      int     true  "Recipe id"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Not in favorites"
// @Router      /recipes/{id}/favorite/ [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFavorite)
}

// AddToCart godoc
// @ID          addToCart
// @Summary     Add a recipe to the shopping cart
// @Tags        Shopping cart
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Recipe id"
// @Success     201  {object}  services.RecipeSummary
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already in the cart"
// @Router      /recipes/{id}/shopping_cart/ [post]
func (h *Handlers) AddToCart(c *gin.Context) {
	h.addRelation(c, h.relations.AddToCart)
}

// RemoveFromCart godoc
// @ID          removeFromCart
// @Summary     Remove a recipe from the shopping cart
// @Tags        Shopping cart
// @Security    BearerAuth
// @Param       id   path      int     true  "Recipe id"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Not in the cart"
// @Router      /recipes/{id}/shopping_cart/ [delete]
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFromCart)
}

// ListCart godoc
// @ID          listCart
// @Summary     List the shopping cart (paginated)
// @Description Most recently added first.
// @Tags        Shopping cart
// @Produce     json
// @Security    BearerAuth
// @Param       page   query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query     int  false  "Items per page"  minimum(1) maximum(100) default(6)
// @Success     200    {object}  handlers.RecipeSummaryListResponse
// @Failure     401    {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /recipes/shopping_cart/ [get]
func (h *Handlers) ListCart(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	p := pageParams(c)
	items, total, err := h.relations.ListCart(c.Request.Context(), uid, p.Page, p.Size)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RecipeSummaryListResponse{Results: items, Pagination: newPagination(p, total)})
}

// DownloadShoppingCart godoc
// @ID          downloadShoppingCart
// @Summary     Download the shopping list
// @Description Sums ingredient amounts over the cart, grouped by name and unit. Supports a weak ETag via If-None-Match.
// @Tags        Shopping cart
// @Produce     plain
// @Produce     text/csv
// @Produce     json
// @Security    BearerAuth
// @Param       format         query   string  false  "Document format"  Enums(txt, csv, json) default(txt)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {file}    file
// @Header      200  {string}  ETag                 "Weak ETag for the current cart"
// @Header      200  {string}  Content-Disposition  "attachment; filename=shopping_list.txt"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown format"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /recipes/download_shopping_cart/ [get]
func (h *Handlers) DownloadShoppingCart(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	format, err := services.ParseFormat(c.Query("format"))
	if err != nil {
		failService(c, err)
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, latest, err := h.shopping.Stats(ctx, uid); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"cart:%d:%d:%d:%s"`, uid, count, ts, format)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	doc, err := h.shopping.Download(ctx, uid, format)
	if err != nil {
		failService(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func (h *Handlers) addRelation(c *gin.Context, add func(context.Context, uint, uint) (*services.RecipeSummary, error)) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	s, err := add(c.Request.Context(), uid, id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, s)
}

func (h *Handlers) removeRelation(c *gin.Context, remove func(context.Context, uint, uint) error) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := remove(c.Request.Context(), uid, id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
