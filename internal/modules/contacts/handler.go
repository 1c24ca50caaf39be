package contacts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"contacts/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler serves the owner-scoped contacts API.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	contacts := rg.Group("/contacts")
	{
		contacts.GET("", h.List)
		contacts.POST("", h.Create)
		contacts.GET("/search", h.Search)
		contacts.GET("/birthdays", h.UpcomingBirthdays)
		contacts.GET("/:id", h.Get)
		contacts.PUT("/:id", h.Update)
		contacts.DELETE("/:id", h.Delete)
	}
}

// List returns the caller's contacts.
//
// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} ListResult
// @Failure 401 {object} map[string]interface{}
// @Router /contacts [get]
func (h *Handler) List(c *gin.Context) {
	ownerID, ok := ownerFrom(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	result, err := h.service.List(c.Request.Context(), ownerID, ListFilter{Page: page, Limit: limit})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *Handler) Get(c *gin.Context) {
	ownerID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	contact, err := h.service.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, contact)
}

// @Summary Create contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateContactRequest true "first_name, last_name, email, phone_number, birthday, notes"
// @Success 201 {object} domain.Contact
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /contacts [post]
func (h *Handler) Create(c *gin.Context) {
	ownerID, ok := ownerFrom(c)
	if !ok {
		return
	}

	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, "Invalid request body", nil)
		return
	}

	contact, err := h.service.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, contact)
}

func (h *Handler) Update(c *gin.Context) {
	ownerID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, "Invalid request body", nil)
		return
	}

	contact, err := h.service.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, contact)
}

// Search matches first name, last name or email, ignoring case.
//
// @Summary Search contacts
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param query query string true "Text to look for"
// @Success 200 {array} domain.Contact
// @Router /contacts/search [get]
func (h *Handler) Search(c *gin.Context) {
	ownerID, ok := ownerFrom(c)
	if !ok {
		return
	}

	found, err := h.service.Search(c.Request.Context(), ownerID, c.Query("query"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, found)
}

// @Summary Contacts with a birthday in the next 7 days
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Contact
// @Router /contacts/birthdays [get]
func (h *Handler) UpcomingBirthdays(c *gin.Context) {
	ownerID, ok := ownerFrom(c)
	if !ok {
		return
	}

	upcoming, err := h.service.UpcomingBirthdays(c.Request.Context(), ownerID, time.Now())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, upcoming)
}

func (h *Handler) Delete(c *gin.Context) {
	ownerID, id, ok := ownerAndID(c)
	if !ok {
		return
	}

	contact, err := h.service.Delete(c.Request.Context(), ownerID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, contact)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, "Invalid contact", verr.Fields)
	case errors.Is(err, ErrNothingToUpdate):
		response.ValidationFailed(c, err.Error(), nil)
	case errors.Is(err, ErrContactNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Contact not found")
	case errors.Is(err, ErrContactExists):
		response.Error(c, http.StatusConflict, "CONTACT_EXISTS", err.Error())
	default:
		_ = c.Error(fmt.Errorf("contacts: %w", err))
		response.Internal(c)
	}
}

func ownerFrom(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	id, ok := v.(int64)
	if !exists || !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized")
		return 0, false
	}
	return id, true
}

func ownerAndID(c *gin.Context) (int64, int64, bool) {
	ownerID, ok := ownerFrom(c)
	if !ok {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationFailed(c, "invalid contact id", nil)
		return 0, 0, false
	}
	return ownerID, id, true
}
