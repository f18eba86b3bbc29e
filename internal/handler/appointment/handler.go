package appointment

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-dashboard/internal/handler"
	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/service/appointment"
	"github.com/jwalitptl/clinic-dashboard/internal/web"
	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	appts, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, web.PageAppointments, "Appointments", gin.H{"appts": appts})
}

func (h *Handler) NewForm(c *gin.Context) {
	h.renderForm(c, "New Appointment", "/appointments/new", model.AppointmentInput{}, "")
}

// Create stores a new appointment. A rejected form is shown again with
// the submitted values and the reason, and nothing is written.
func (h *Handler) Create(c *gin.Context) {
	in, err := bindInput(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	_, err = h.service.Create(c.Request.Context(), in)
	var verr *appointment.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(c, "New Appointment", "/appointments/new", verr.Input, verr.Message)
		return
	case err != nil:
		handler.Fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/appointments")
}

func (h *Handler) EditForm(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	appt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	h.renderForm(c, "Edit Appointment", editPath(id), model.InputFrom(appt), "")
}

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	in, err := bindInput(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if _, err := h.service.Update(c.Request.Context(), id, in); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/appointments")
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/appointments")
}

func (h *Handler) renderForm(c *gin.Context, title, action string, in model.AppointmentInput, flash string) {
	opts, err := h.service.FormOptions(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	data := gin.H{
		"appt":     in,
		"action":   action,
		"options":  opts,
		"statuses": model.AppointmentStatuses(),
	}
	if flash != "" {
		data["flash"] = flash
	}
	handler.Render(c, http.StatusOK, web.PageAppointmentForm, title, data)
}

// bindInput reads the form. Non-numeric ids are a malformed request rather
// than a validation message.
func bindInput(c *gin.Context) (model.AppointmentInput, error) {
	var in model.AppointmentInput
	if err := c.ShouldBind(&in); err != nil {
		return in, apperrors.NewBadRequest("invalid appointment form", err)
	}
	return in, nil
}

func editPath(id int64) string {
	return fmt.Sprintf("/appointments/%d/edit", id)
}
