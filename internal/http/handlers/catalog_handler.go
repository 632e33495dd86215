// Catalog HTTP handlers: read-only tags and ingredients, unpaginated.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Tags        Tags
// @Produce     json
// @Success     200  {array}   domain.Tag
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /tags/ [get]
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, tags)
}

// GetTag godoc
// @ID          getTag
// @Summary     Get a tag
// @Tags        Tags
// @Produce     json
// @Param       id   path      int  true  "Tag id"
// @Success     200  {object}  domain.Tag
// @Failure     404  {object}  handlers.ErrorResponse  "Tag not found"
// @Router      /tags/{id}/ [get]
func (h *Handlers) GetTag(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	tag, err := h.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, tag)
}

// ListIngredients godoc
// @ID          listIngredients
// @Summary     Search ingredients
// @Description Case-insensitive prefix match on the name; all ingredients when name is empty.
// @Tags        Ingredients
// @Produce     json
// @Param       name  query     string  false  "Name prefix"
// @Success     200   {array}   domain.Ingredient
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ingredients/ [get]
func (h *Handlers) ListIngredients(c *gin.Context) {
	items, err := h.catalog.SearchIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetIngredient godoc
// @ID          getIngredient
// @Summary     Get an ingredient
// @Tags        Ingredients
// @Produce     json
// @Param       id   path      int  true  "Ingredient id"
// @Success     200  {object}  domain.Ingredient
// @Failure     404  {object}  handlers.ErrorResponse  "Ingredient not found"
// @Router      /ingredients/{id}/ [get]
func (h *Handlers) GetIngredient(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	ing, err := h.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ing)
}
