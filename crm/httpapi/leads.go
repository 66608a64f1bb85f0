package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/crm/domain"
)

// Age accepts a number, a numeric string, "" or null. Zero means unset.
type Age int

// UnmarshalJSON implements json.Unmarshaler.
func (a *Age) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*a = Age(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("age must be an integer")
	}
	return a.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler for form bodies.
func (a *Age) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*a = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("age must be an integer")
	}
	*a = Age(n)
	return nil
}

// LeadRequest is the body of both lead endpoints. Unknown keys are ignored.
type LeadRequest struct {
	Name       string `json:"name" form:"name" validate:"required,min=2,max=120"`
	Phone      string `json:"phone" form:"phone" validate:"required,max=64"`
	Age        Age    `json:"age" form:"age" validate:"omitempty,gte=1,lte=99"`
	TgUsername string `json:"tg_username" form:"tg_username" validate:"max=64"`
	Comment    string `json:"comment" form:"comment" validate:"max=600"`
	Source     string `json:"source" form:"source" validate:"max=32"`
	RefCode    string `json:"ref_code" form:"ref_code" validate:"max=64"`
}

func (l *LeadRequest) trim() {
	l.Name = strings.TrimSpace(l.Name)
	l.Phone = strings.TrimSpace(l.Phone)
}

func (l LeadRequest) lead() domain.Lead {
	out := domain.Lead{
		Name:       l.Name,
		Phone:      l.Phone,
		TgUsername: l.TgUsername,
		Comment:    l.Comment,
		Source:     l.Source,
		RefCode:    l.RefCode,
	}
	if l.Age > 0 {
		out.Age = strconv.Itoa(int(l.Age))
	}
	return out
}

// LeadResponse is the stored lead.
type LeadResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Age        string    `json:"age,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	TgUsername string    `json:"tg_username,omitempty"`
	Source     string    `json:"source"`
	RefCode    string    `json:"ref_code"`
	Status     string    `json:"status"`
	Processed  bool      `json:"processed"`
	CreatedAt  time.Time `json:"created_at"`
}

func leadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:         l.ID,
		Name:       l.Name,
		Phone:      l.Phone,
		Age:        l.Age,
		Comment:    l.Comment,
		TgUsername: l.TgUsername,
		Source:     l.Source,
		RefCode:    l.RefCode,
		Status:     l.Status,
		Processed:  l.Processed,
		CreatedAt:  l.CreatedAt,
	}
}

// createLead accepts JSON or a urlencoded form.
func (s *Server) createLead(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := render.Decode(r, &req); err != nil {
		logger.Warn(r.Context(), "http", "lead.decode", logger.Err(err))
		fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	s.submitLead(w, r, req)
}

// createLeadForm accepts the site form; the source is always the site.
func (s *Server) createLeadForm(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := render.DecodeForm(r.Body, &req); err != nil {
		logger.Warn(r.Context(), "http", "lead.decode", logger.Err(err))
		fail(w, r, http.StatusBadRequest, "invalid form body")
		return
	}
	req.Source = ""
	s.submitLead(w, r, req)
}

func (s *Server) submitLead(w http.ResponseWriter, r *http.Request, req LeadRequest) {
	req.trim()
	if err := s.validate.Struct(req); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, "validation failed", invalidFields(err)...)
		return
	}
	if !domain.ValidPhone(req.Phone) {
		fail(w, r, http.StatusUnprocessableEntity, "validation failed", "phone")
		return
	}

	lead, created, err := s.leads.Submit(r.Context(), req.lead())
	if err != nil {
		logger.Error(r.Context(), "http", "lead.submit", logger.Err(err))
		fail(w, r, http.StatusInternalServerError, "failed to store lead")
		return
	}
	if created {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, leadResponse(lead))
}
