// User and subscription HTTP handlers.
//
//   - POST   /users/                 (register)
//   - GET    /users/, /users/{id}/, /users/me/
//   - POST   /users/{id}/subscribe/  (follow; DELETE unfollows)
//   - GET    /users/subscriptions/   (followed authors with recipe previews)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-foodgram-backend/internal/services"
)

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Results    []services.UserView `json:"results"`
	Pagination Pagination          `json:"pagination"`
}

// SubscriptionListResponse wraps a page of followed authors.
type SubscriptionListResponse struct {
	Results    []services.SubscriptionView `json:"results"`
	Pagination Pagination                  `json:"pagination"`
}

// RegisterUser godoc
// @ID          registerUser
// @Summary     Register a user profile
// @Description Credentials are handled by the identity provider; this stores the profile.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      services.UserInput  true  "Profile"
// @Success     201   {object}  services.UserView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     409   {object}  handlers.ErrorResponse  "Email or username taken"
// @Router      /users/ [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Tags        Users
// @Produce     json
// @Param       page   query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query     int  false  "Items per page"  minimum(1) maximum(100) default(6)
// @Success     200    {object}  handlers.UserListResponse
// @Router      /users/ [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	p := pageParams(c)
	items, total, err := h.users.ListPage(c.Request.Context(), viewer(c), p.Page, p.Size)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, UserListResponse{Results: items, Pagination: newPagination(p, total)})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       id   path      int  true  "User id"
// @Success     200  {object}  services.UserView
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id}/ [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	u, err := h.users.Get(c.Request.Context(), viewer(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.UserView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /users/me/ [get]
func (h *Handlers) Me(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	u, err := h.users.Get(c.Request.Context(), uid, uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Follow an author
// @Tags        Subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id             path      int  true   "Author id"
// @Param       recipes_limit  query     int  false  "Recipes shown in the preview"
// @Success     201  {object}  services.SubscriptionView
// @Failure     400  {object}  handlers.ErrorResponse  "Self follow"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already following"
// @Router      /users/{id}/subscribe/ [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	v, err := h.follows.Subscribe(c.Request.Context(), uid, id, services.ParseRecipesLimit(c.Query("recipes_limit")))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, v)
}

// Unsubscribe godoc
// @ID          unsubscribe
// @Summary     Unfollow an author
// @Tags        Subscriptions
// @Security    BearerAuth
// @Param       id   path      int     true  "Author id"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Not following"
// @Router      /users/{id}/subscribe/ [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.follows.Unsubscribe(c.Request.Context(), uid, id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ListSubscriptions godoc
// @ID          listSubscriptions
// @Summary     List followed authors (paginated)
// @Description Most recent follow first; recipes_limit truncates each preview, recipes_count is the true total.
// @Tags        Subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       recipes_limit  query     int  false  "Recipes shown per author"
// @Param       page           query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit          query     int  false  "Items per page"  minimum(1) maximum(100) default(6)
// @Success     200  {object}  handlers.SubscriptionListResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /users/subscriptions/ [get]
func (h *Handlers) ListSubscriptions(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	p := pageParams(c)
	items, total, err := h.follows.ListSubscriptions(c.Request.Context(), uid, p.Page, p.Size,
		services.ParseRecipesLimit(c.Query("recipes_limit")))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, SubscriptionListResponse{Results: items, Pagination: newPagination(p, total)})
}
