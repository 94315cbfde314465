package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"astrodesk/internal/middleware"
	"astrodesk/internal/models"
	"astrodesk/internal/session"
)

type crudFixture struct {
	router   chi.Router
	user     *session.Data
	subjects *fakeSubjectStore
	charts   *fakeChartStore
}

func newCRUDFixture(t *testing.T) *crudFixture {
	t.Helper()

	user := &session.Data{UserID: uuid.New(), Email: "luna@astrodesk.local", Role: "member"}
	subjects := &fakeSubjectStore{subjects: map[uuid.UUID]*models.Subject{}}
	charts := &fakeChartStore{charts: map[uuid.UUID]*models.Chart{}}

	sh := NewSubjects(subjects)
	ch := NewCharts(charts, subjects)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.SessionKey, user)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/api/subjects", func(r chi.Router) {
		r.Get("/", sh.List)
		r.Post("/", sh.Create)
		r.Route("/{subjectID}", func(r chi.Router) {
			r.Get("/", sh.Get)
			r.Put("/", sh.Update)
			r.Delete("/", sh.Delete)
		})
	})
	r.Route("/api/charts", func(r chi.Router) {
		r.Get("/", ch.List)
		r.Post("/", ch.Create)
		r.Route("/{chartID}", func(r chi.Router) {
			r.Get("/", ch.Get)
			r.Put("/", ch.Update)
			r.Delete("/", ch.Delete)
		})
	})

	return &crudFixture{router: r, user: user, subjects: subjects, charts: charts}
}

func (f *crudFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestSubjectCreateValidation(t *testing.T) {
	f := newCRUDFixture(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"birth_date": "1990-06-15"}},
		{"bad date", map[string]any{"name": "Luna", "birth_date": "June 15th"}},
		{"latitude out of range", map[string]any{"name": "Luna", "birth_date": "1990-06-15", "latitude": 91.0}},
		{"longitude out of range", map[string]any{"name": "Luna", "birth_date": "1990-06-15", "longitude": -181.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/subjects/", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400\n%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSubjectCRUD(t *testing.T) {
	f := newCRUDFixture(t)

	rr := f.do(t, http.MethodPost, "/api/subjects/", map[string]any{
		"name":       "Luna",
		"birth_date": "1990-06-15",
		"birth_time": "08:45",
		"latitude":   44.43,
		"longitude":  26.10,
		"timezone":   "Europe/Bucharest",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d\n%s", rr.Code, rr.Body.String())
	}
	var created models.Subject
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.OwnerID != f.user.UserID {
		t.Error("subject should belong to the session user")
	}

	rr = f.do(t, http.MethodGet, "/api/subjects/"+created.ID.String()+"/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	rr = f.do(t, http.MethodPut, "/api/subjects/"+created.ID.String()+"/", map[string]any{
		"name":       "Luna Renamed",
		"birth_date": "1990-06-16",
		"latitude":   44.43,
		"longitude":  26.10,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d\n%s", rr.Code, rr.Body.String())
	}
	var updated models.Subject
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.Name != "Luna Renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.BirthTime != nil {
		t.Error("update without birth_time should clear it")
	}

	rr = f.do(t, http.MethodDelete, "/api/subjects/"+created.ID.String()+"/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = f.do(t, http.MethodGet, "/api/subjects/"+created.ID.String()+"/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rr.Code)
	}
}

func TestSubjectOwnershipEnforced(t *testing.T) {
	f := newCRUDFixture(t)

	other, _ := f.subjects.Create(&models.Subject{
		OwnerID:   uuid.New(), // someone else
		Name:      "Stranger",
		BirthDate: time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	rr := f.do(t, http.MethodGet, "/api/subjects/"+other.ID.String()+"/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another user's subject", rr.Code)
	}
}

func TestChartCreateValidation(t *testing.T) {
	f := newCRUDFixture(t)
	sub, _ := f.subjects.Create(&models.Subject{
		OwnerID:   f.user.UserID,
		Name:      "Luna",
		BirthDate: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
	})

	cases := []struct {
		name string
		body map[string]any
	}{
		{"unknown type", map[string]any{"type": "horary", "subject_id": sub.ID}},
		{"missing subject", map[string]any{"type": "natal"}},
		{"synastry without partner", map[string]any{"type": "synastry", "subject_id": sub.ID}},
		{"transit without as_of", map[string]any{"type": "transit", "subject_id": sub.ID}},
		{"solar return without cycle", map[string]any{"type": "solar_return", "subject_id": sub.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/charts/", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400\n%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestChartCreateRejectsForeignSubject(t *testing.T) {
	f := newCRUDFixture(t)
	foreign, _ := f.subjects.Create(&models.Subject{
		OwnerID:   uuid.New(),
		Name:      "Stranger",
		BirthDate: time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	rr := f.do(t, http.MethodPost, "/api/charts/", map[string]any{
		"type":       "natal",
		"subject_id": foreign.ID,
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another user's subject", rr.Code)
	}
}

func TestChartCreateAppliesDefaults(t *testing.T) {
	f := newCRUDFixture(t)
	sub, _ := f.subjects.Create(&models.Subject{
		OwnerID:   f.user.UserID,
		Name:      "Luna",
		BirthDate: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
	})

	rr := f.do(t, http.MethodPost, "/api/charts/", map[string]any{
		"type":       "natal",
		"subject_id": sub.ID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d\n%s", rr.Code, rr.Body.String())
	}
	var c models.Chart
	json.Unmarshal(rr.Body.Bytes(), &c)
	if c.HouseSystem != "whole_sign" || c.School != "modern" {
		t.Errorf("defaults not applied: %+v", c)
	}
}
