package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
	"github.com/trezcool/tamasha/core/user"
)

func Test_eventApi_listOpen(t *testing.T) {
	open := createEvent(t, "Open Expo", core.ChapterSIGHT, 50, "2026-05-01", "09:00", "10:00", true)
	hidden := createEvent(t, "Hidden Expo", core.ChapterSIGHT, 50, "2026-05-01", "11:00", "12:00", false)

	req, rec := newRequest(http.MethodGet, "/v1/events")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var events []event.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("unmarshalling events: %v", err)
	}
	var foundOpen, foundHidden bool
	for _, e := range events {
		if e.ID == open.ID {
			foundOpen = true
		}
		if e.ID == hidden.ID {
			foundHidden = true
		}
	}
	if !foundOpen {
		t.Error("open event missing from the public listing")
	}
	if foundHidden {
		t.Error("closed event leaked into the public listing")
	}
}

func Test_eventApi_create(t *testing.T) {
	eliteMaster := createUser(t, "Elite", "evelite", "evelite@test.in", "pwd", user.RoleEliteMaster, "")
	csAdmin := createUser(t, "CS Admin", "evcs", "evcs@test.in", "pwd", user.RoleChapterAdmin, core.ChapterCS)

	body := func(name, chapter string) []byte {
		return marchallObj(t, map[string]interface{}{
			"name":       name,
			"chapter":    chapter,
			"date":       "2026-05-02",
			"start_time": "09:00",
			"end_time":   "10:00",
			"fee":        100,
		})
	}

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/admin/events", body("Hack", "CS"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want 401; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("elite master creates any chapter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/events", getToken(t, eliteMaster), body("Elite Hack", "PES"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want 201; body %s", rec.Code, rec.Body.String())
		}
		var evt event.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
			t.Fatalf("unmarshalling event: %v", err)
		}
		if evt.Chapter != core.ChapterPES {
			t.Errorf("Chapter = %s, want PES", evt.Chapter)
		}
	})

	t.Run("chapter admin creates own chapter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/events", getToken(t, csAdmin), body("CS Hack", "cs"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("code = %d, want 201; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("chapter admin cannot create for another chapter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/events", getToken(t, csAdmin), body("PES Hack", "PES"))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown chapter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/events", getToken(t, eliteMaster), body("Mystery", "XYZ"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_eventApi_updateAndDelete(t *testing.T) {
	eliteMaster := createUser(t, "Elite", "udelite", "udelite@test.in", "pwd", user.RoleEliteMaster, "")
	pesAdmin := createUser(t, "PES Admin", "udpes", "udpes@test.in", "pwd", user.RoleChapterAdmin, core.ChapterPES)
	evt := createEvent(t, "Update Me", core.ChapterCS, 100, "2026-05-03", "09:00", "10:00", true)
	path := fmt.Sprintf("/v1/admin/events/%d", evt.ID)

	t.Run("foreign chapter admin cannot update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, pesAdmin), marchallObj(t, map[string]string{"name": "Hacked"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("closing registration", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, eliteMaster), marchallObj(t, map[string]interface{}{"registration_open": false}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
		}
		var updated event.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling event: %v", err)
		}
		if updated.RegistrationOpen {
			t.Error("RegistrationOpen = true, want false")
		}
	})

	t.Run("chapter admins cannot delete", func(t *testing.T) {
		csAdmin := createUser(t, "CS Admin", "udcs", "udcs@test.in", "pwd", user.RoleChapterAdmin, core.ChapterCS)
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, csAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("elite master deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, eliteMaster))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("code = %d, want 204; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, path, getToken(t, eliteMaster))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want 404; body %s", rec.Code, rec.Body.String())
		}
	})
}
