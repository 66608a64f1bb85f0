package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/boxingcrm/crm/broadcast"
	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/leads"
	"github.com/m3rciful/boxingcrm/crm/storage/memory"
)

type fakeBroadcaster struct {
	audience domain.Audience
	text     string
	res      broadcast.Result
	err      error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, audience domain.Audience, text string) (broadcast.Result, error) {
	f.audience, f.text = audience, text
	return f.res, f.err
}

type alertLog struct{ n int }

func (a *alertLog) Notify(context.Context, string) int { a.n++; return 1 }

func newTestServer(t *testing.T) (*Server, *memory.Store, *alertLog, *fakeBroadcaster) {
	t.Helper()
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.New(clock)
	alerts := &alertLog{}
	b := &fakeBroadcaster{res: broadcast.Result{Sent: 3, Failed: 1}}
	s := New(Options{AdminKey: "secret", Version: "v1.2.3"}, leads.New(store, alerts, 0, clock), b)
	return s, store, alerts, b
}

func do(s http.Handler, method, path, contentType, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true || body["version"] != "v1.2.3" {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateLeadJSON(t *testing.T) {
	s, store, alerts, _ := newTestServer(t)
	body := `{"name":"Aziz","phone":"+998 90 123 45 67","age":"12","tg_username":"@aziz","extra":1}`

	rec := do(s, http.MethodPost, "/api/leads", "application/json", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var out LeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Phone != "998901234567" || out.Age != "12" || out.TgUsername != "aziz" || out.Status != domain.LeadNew || out.Source != "site" {
		t.Fatalf("lead = %+v", out)
	}
	if alerts.n != 1 {
		t.Fatalf("alerts = %d", alerts.n)
	}

	rec = do(s, http.MethodPost, "/api/leads", "application/json", `{"name":"Aziz","phone":"998901234567","age":12}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	if n := len(store.Leads()); n != 1 || alerts.n != 1 {
		t.Fatalf("leads=%d alerts=%d", n, alerts.n)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	comment := func(n int) string {
		return `{"name":"Aziz","phone":"998901234567","comment":"` + strings.Repeat("ж", n) + `"}`
	}
	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing name", `{"phone":"998901234567"}`, http.StatusUnprocessableEntity},
		{"blank name", `{"name":"  ","phone":"998901234567"}`, http.StatusUnprocessableEntity},
		{"one letter name", `{"name":"A","phone":"998901234567"}`, http.StatusUnprocessableEntity},
		{"short phone", `{"name":"Aziz","phone":"12-34"}`, http.StatusUnprocessableEntity},
		{"long phone", `{"name":"Aziz","phone":"` + strings.Repeat("9", 65) + `"}`, http.StatusUnprocessableEntity},
		{"bad age", `{"name":"Aziz","phone":"998901234567","age":"ten"}`, http.StatusBadRequest},
		{"negative age", `{"name":"Aziz","phone":"998901234567","age":-2}`, http.StatusUnprocessableEntity},
		{"long comment", comment(601), http.StatusUnprocessableEntity},
		{"broken json", `{"name":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := do(s, http.MethodPost, "/api/leads", "application/json", tc.body)
		if rec.Code != tc.code {
			t.Fatalf("%s: status = %d body=%s", tc.name, rec.Code, rec.Body.String())
		}
	}
	if n := len(store.Leads()); n != 0 {
		t.Fatalf("invalid leads stored: %d", n)
	}

	if rec := do(s, http.MethodPost, "/api/leads", "application/json", comment(600)); rec.Code != http.StatusCreated {
		t.Fatalf("600 character comment: status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateLeadForm(t *testing.T) {
	s, store, _, _ := newTestServer(t)
	form := url.Values{"name": {"Dilnoza"}, "phone": {"+998 91 555-44-33"}, "age": {""}, "comment": {"вечером"}}
	rec := do(s, http.MethodPost, "/api/leads-form", "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	leadsStored := store.Leads()
	if len(leadsStored) != 1 || leadsStored[0].Phone != "998915554433" || leadsStored[0].Comment != "вечером" || leadsStored[0].Age != "" {
		t.Fatalf("leads = %+v", leadsStored)
	}
}

func TestBroadcastRequiresKey(t *testing.T) {
	s, _, _, b := newTestServer(t)
	body := `{"audience":"parents","text":"Завтра тренировок нет"}`

	if rec := do(s, http.MethodPost, "/admin/broadcast", "application/json", body); rec.Code != http.StatusForbidden {
		t.Fatalf("no key status = %d", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/admin/broadcast", "application/json", body, adminKeyHeader, "wrong"); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong key status = %d", rec.Code)
	}

	rec := do(s, http.MethodPost, "/admin/broadcast", "application/json", body, adminKeyHeader, "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var res broadcast.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Sent != 3 || res.Failed != 1 || b.audience != domain.AudienceParents {
		t.Fatalf("result = %+v audience=%s", res, b.audience)
	}

	rec = do(s, http.MethodPost, "/admin/broadcast", "application/json", `{"audience":"coaches","text":"x"}`, adminKeyHeader, "secret")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown audience status = %d", rec.Code)
	}
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	s := New(Options{}, nil, &fakeBroadcaster{})
	rec := do(s, http.MethodPost, "/admin/broadcast", "application/json", `{"audience":"parents","text":"x"}`, adminKeyHeader, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}
