// Recipe HTTP handlers.
//
// This file exposes REST endpoints for recipe resources:
//   - GET    /recipes/        (list, filtered and paginated)
//   - POST   /recipes/        (create, Idempotency-Key aware)
//   - GET    /recipes/{id}/   (detail)
//   - PUT    /recipes/{id}/   (full replacement, author only; PATCH alias)
//   - DELETE /recipes/{id}/   (author only)
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-foodgram-backend/internal/http/middleware"
	"github.com/tbourn/go-foodgram-backend/internal/services"
)

// RecipeListResponse wraps a page of recipes and pagination information.
type RecipeListResponse struct {
	Results    []services.RecipeView `json:"results"`
	Pagination Pagination            `json:"pagination"`
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List recipes (paginated)
// @Description Newest first. Filters combine with AND; several tags match any of them.
// @Tags        Recipes
// @Produce     json
//
// @Param       tags                 query  []string  false  "Tag slugs"  collectionFormat(multi)
// @Param       author               query  int       false  "Author id"
// @Param       name                 query  string    false  "Name prefix"
// @Param       is_favorited         query  int       false  "Only the caller's favorites (1)"
// @Param       is_in_shopping_cart  query  int       false  "Only recipes in the caller's cart (1)"
// @Param       page                 query  int       false  "Page number"     minimum(1) default(1)
// @Param       limit                query  int       false  "Items per page"  minimum(1) maximum(100) default(6)
//
// @Success     200  {object}  handlers.RecipeListResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /recipes/ [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	q := services.RecipeQuery{
		Tags:             c.QueryArray("tags"),
		Name:             strings.TrimSpace(c.Query("name")),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if a := c.Query("author"); a != "" {
		n, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "author must be a positive integer")
			return
		}
		q.AuthorID = uint(n)
	}

	p := pageParams(c)
	items, total, err := h.recipes.List(c.Request.Context(), viewer(c), q, p.Page, p.Size)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RecipeListResponse{Results: items, Pagination: newPagination(p, total)})
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     Get a recipe
// @Tags        Recipes
// @Produce     json
// @Param       id   path      int  true  "Recipe id"
// @Success     200  {object}  services.RecipeView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Router      /recipes/{id}/ [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	view, err := h.recipes.Get(c.Request.Context(), viewer(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// CreateRecipe godoc
// @ID          createRecipe
// @Summary     Create a recipe
// @Description The image is a base64 data URI. A repeated Idempotency-Key returns the recipe created by the first request.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string                false  "Idempotency key"
// @Param       body             body    services.RecipeInput  true  "Recipe"
//
// @Success     201  {object}  services.RecipeView
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown ingredient"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate recipe name"
// @Router      /recipes/ [post]
func (h *Handlers) CreateRecipe(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()

	if id, replay := middleware.ReplayResourceID(c); replay {
		view, err := h.recipes.Get(ctx, uid, id)
		if err != nil {
			failService(c, err)
			return
		}
		ok(c, http.StatusCreated, view)
		return
	}

	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	r, err := h.recipes.Create(ctx, uid, in)
	if err != nil {
		failService(c, err)
		return
	}
	if key, has := middleware.GetIdempotencyKey(c); has && h.idem != nil {
		if err := h.idem.Save(ctx, uid, c.FullPath(), key, r.ID, http.StatusCreated); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Uint("recipe_id", r.ID).Msg("idempotency key not stored")
		}
	}

	view, err := h.recipes.Get(ctx, uid, r.ID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, view)
}

// UpdateRecipe godoc
// @ID          updateRecipe
// @Summary     Replace a recipe
// @Description Author only. Tags and ingredients are replaced wholesale; the image is kept when omitted.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                   true  "Recipe id"
// @Param       body  body      services.RecipeInput  true  "Recipe"
// @Success     200   {object}  services.RecipeView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403   {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404   {object}  handlers.ErrorResponse  "Recipe not found"
// @Router      /recipes/{id}/ [put]
// @Router      /recipes/{id}/ [patch]
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.recipes.Update(ctx, uid, id, in); err != nil {
		failService(c, err)
		return
	}
	view, err := h.recipes.Get(ctx, uid, id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// DeleteRecipe godoc
// @ID          deleteRecipe
// @Summary     Delete a recipe
// @Description Author only. Removes ingredient lines, tag links, favorites and cart entries.
// @Tags        Recipes
// @Security    BearerAuth
// @Param       id   path    int     true  "Recipe id"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Router      /recipes/{id}/ [delete]
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), uid, id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
