package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/registration"
	"github.com/trezcool/tamasha/core/user"
)

func submitBody(t *testing.T, email, phone string, eventIDs ...int) []byte {
	t.Helper()
	return marchallObj(t, map[string]interface{}{
		"name":           "Asha Rao",
		"email":          email,
		"phone":          phone,
		"branch":         "CSE",
		"year":           3,
		"event_ids":      eventIDs,
		"transaction_id": "TXN123456",
		"proof_ref":      "proof.png",
		"consent":        true,
	})
}

func Test_registrationApi_quote(t *testing.T) {
	e1 := createEvent(t, "Quote Hack", core.ChapterCS, 100, "2026-04-01", "09:00", "10:00", true)
	e2 := createEvent(t, "Quote Jam", core.ChapterCS, 100, "2026-04-01", "11:00", "12:00", true)

	t.Run("prices a combo selection", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"event_ids": []int{e1.ID, e2.ID}})
		req, rec := newRequest(http.MethodPost, "/v1/registrations/quote", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
		}
		var q registration.Quote
		if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
			t.Fatalf("unmarshalling quote: %v", err)
		}
		if q.Total != 180 {
			t.Errorf("Quote.Total = %d, want 180", q.Total)
		}
		if q.BaseTotal != 200 {
			t.Errorf("Quote.BaseTotal = %d, want 200", q.BaseTotal)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"event_ids": []int{99999}})
		req, rec := newRequest(http.MethodPost, "/v1/registrations/quote", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"event_ids": []int{}})
		req, rec := newRequest(http.MethodPost, "/v1/registrations/quote", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_registrationApi_submit(t *testing.T) {
	e1 := createEvent(t, "Submit Race", core.ChapterRAS, 200, "2026-04-02", "09:00", "10:00", true)
	e2 := createEvent(t, "Submit Quiz", core.ChapterWIE, 150, "2026-04-02", "11:00", "12:00", true)
	clashing := createEvent(t, "Submit Clash", core.ChapterSIGHT, 100, "2026-04-02", "09:30", "10:30", true)
	closed := createEvent(t, "Submit Closed", core.ChapterRAS, 100, "2026-04-02", "13:00", "14:00", false)

	t.Run("created", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/registrations", submitBody(t, "submit1@test.in", "9876500001", e1.ID, e2.ID))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want 201; body %s", rec.Code, rec.Body.String())
		}
		var sub registration.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("unmarshalling submission: %v", err)
		}
		if sub.Quote.Total != 350 {
			t.Errorf("Quote.Total = %d, want 350", sub.Quote.Total)
		}
		if len(sub.Registrations) != 2 {
			t.Errorf("got %d registrations, want 2", len(sub.Registrations))
		}
	})

	t.Run("duplicate conflicts", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/registrations", submitBody(t, "submit1@test.in", "9876500001", e1.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %d, want 409; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("schedule clash conflicts", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/registrations", submitBody(t, "submit1@test.in", "9876500001", clashing.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %d, want 409; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("closed event", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/registrations", submitBody(t, "submit2@test.in", "9876500002", closed.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"name": "No One"})
		req, rec := newRequest(http.MethodPost, "/v1/registrations", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_registrationApi_proof(t *testing.T) {
	newUpload := func(t *testing.T, field, filename, content string) (*http.Request, *httptest.ResponseRecorder) {
		t.Helper()
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		fw, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
		_ = w.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/registrations/proof", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, httptest.NewRecorder()
	}

	t.Run("upload and admin download", func(t *testing.T) {
		req, rec := newUpload(t, "file", "upi.png", "fake-png-bytes")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want 201; body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			ProofRef string `json:"proof_ref"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.ProofRef == "" {
			t.Fatal("expected a proof_ref")
		}

		// submit a registration carrying this proof, then fetch it back as admin
		evt := createEvent(t, "Proof Race", core.ChapterRAS, 200, "2026-04-03", "09:00", "10:00", true)
		body := marchallObj(t, map[string]interface{}{
			"name": "Asha Rao", "email": "proof@test.in", "phone": "9876500003",
			"branch": "CSE", "year": 3, "event_ids": []int{evt.ID},
			"transaction_id": "TXN777", "proof_ref": resp.ProofRef, "consent": true,
		})
		req2, rec2 := newRequest(http.MethodPost, "/v1/registrations", body)
		app.ServeHTTP(rec2, req2)
		if rec2.Code != http.StatusCreated {
			t.Fatalf("code = %d, want 201; body %s", rec2.Code, rec2.Body.String())
		}
		var sub registration.Submission
		if err := json.Unmarshal(rec2.Body.Bytes(), &sub); err != nil {
			t.Fatalf("unmarshalling submission: %v", err)
		}

		admin := createUser(t, "Boss", "proofboss", "proofboss@test.in", "pwd", user.RoleSuperAdmin, "")
		path := fmt.Sprintf("/v1/admin/registrations/%d/proof", sub.Registrations[0].ID)
		req3, rec3 := newAuthRequest(http.MethodGet, path, getToken(t, admin))
		app.ServeHTTP(rec3, req3)
		if rec3.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body %s", rec3.Code, rec3.Body.String())
		}
		if rec3.Body.String() != "fake-png-bytes" {
			t.Errorf("downloaded proof = %q, want %q", rec3.Body.String(), "fake-png-bytes")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		req, rec := newUpload(t, "nope", "upi.png", "x")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_registrationApi_adminWorkflow(t *testing.T) {
	superAdmin := createUser(t, "Super", "wfsuper", "wfsuper@test.in", "pwd", user.RoleSuperAdmin, "")
	csAdmin := createUser(t, "CS Admin", "wfcs", "wfcs@test.in", "pwd", user.RoleChapterAdmin, core.ChapterCS)
	pesAdmin := createUser(t, "PES Admin", "wfpes", "wfpes@test.in", "pwd", user.RoleChapterAdmin, core.ChapterPES)

	pesEvt := createEvent(t, "Workflow Quiz", core.ChapterPES, 120, "2026-04-04", "09:00", "10:00", true)

	req, rec := newRequest(http.MethodPost, "/v1/registrations", submitBody(t, "wf@test.in", "9876500004", pesEvt.ID))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var sub registration.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("unmarshalling submission: %v", err)
	}
	regID := sub.Registrations[0].ID
	verifyPath := fmt.Sprintf("/v1/admin/registrations/%d/verify", regID)
	rejectPath := fmt.Sprintf("/v1/admin/registrations/%d/reject", regID)

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{
			path: "/v1/admin/registrations", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		}
		req, rec := newRequest(http.MethodGet, tt.path)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("foreign chapter admin cannot see the registration", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/admin/registrations/%d", regID), getToken(t, csAdmin))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("foreign chapter admin cannot verify", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, verifyPath, getToken(t, csAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("reject requires a note", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, rejectPath, getToken(t, pesAdmin), marchallObj(t, map[string]string{"note": ""}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("own chapter admin verifies", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, verifyPath, getToken(t, pesAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
		}
		var reg registration.Registration
		if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
			t.Fatalf("unmarshalling registration: %v", err)
		}
		if reg.Status != registration.StatusConfirmed || reg.PaymentStatus != registration.PaymentVerified {
			t.Errorf("got status=%s payment=%s, want confirmed/verified", reg.Status, reg.PaymentStatus)
		}
	})

	t.Run("double processing conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, verifyPath, getToken(t, superAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %d, want 409; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("super admin lists everything", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/registrations", getToken(t, superAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
		}
		var regs []registration.Registration
		if err := json.Unmarshal(rec.Body.Bytes(), &regs); err != nil {
			t.Fatalf("unmarshalling registrations: %v", err)
		}
		found := false
		for _, r := range regs {
			if r.ID == regID {
				found = true
			}
		}
		if !found {
			t.Errorf("registration %d missing from the super admin listing", regID)
		}
	})

	t.Run("csv export", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/registrations/export", getToken(t, superAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("Content-Type = %s, want text/csv", ct)
		}
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		if len(lines) < 2 {
			t.Fatalf("expected a header and at least one row, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "ID,Event,Chapter") {
			t.Errorf("unexpected csv header: %s", lines[0])
		}
	})
}
