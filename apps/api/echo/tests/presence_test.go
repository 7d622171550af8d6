package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/yzGabiru/callback/core/presence"
)

func Test_presenceApi_presenceRegister(t *testing.T) {
	setup(t)
	pinClock(t, 2024, time.June, 10, 10) // a Monday morning

	admin := createUser(t, "Admin", "admin@test.test", "LolC@t123", true, true)
	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	other := createUser(t, "Other", "other@test.test", "LolC@t123", false, true)
	b := createBus(t, "Linha Azul", "Campus - Centro")

	studentToken := getToken(t, student)

	newBody := func(studentID, callDate string) []byte {
		return marchallObj(t, presence.NewPresence{
			StudentID:       studentID,
			BusID:           b.ID,
			CallDate:        callDate,
			IntendsOutbound: true,
			IntendsReturn:   true,
		})
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: studentToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"studentId": "this field is required", "busId": "this field is required", "callDate": "this field is required",
			}),
		},
		{
			name: "malformed date", token: studentToken, wantCode: http.StatusBadRequest,
			body:     newBody(student.ID, "10-06-2024"),
			wantData: marchallObj(t, map[string]string{"callDate": "invalid date; use the YYYY-MM-DD format"}),
		},
		{
			name: "nonexistent date", token: studentToken, wantCode: http.StatusBadRequest,
			body:     newBody(student.ID, "2024-13-01"),
			wantData: marchallObj(t, httpErr{Error: "invalid date"}),
		},
		{
			name: "cannot register for others", token: studentToken, wantCode: http.StatusForbidden,
			body:     newBody(other.ID, "2024-06-10"),
			wantData: marchallObj(t, errPermDenied),
		},
		{name: "registered", token: studentToken, wantCode: http.StatusCreated, body: newBody(student.ID, "2024-06-10")},
		{
			name: "duplicate registration", token: studentToken, wantCode: http.StatusConflict,
			body:     newBody(student.ID, "2024-06-10"),
			wantData: marchallObj(t, httpErr{Error: "attendance already registered for monday"}),
		},
		{
			name: "weekend rejected", token: studentToken, wantCode: http.StatusBadRequest,
			body:     newBody(student.ID, "2024-06-15"),
			wantData: marchallObj(t, httpErr{Error: "attendance cannot be registered for a saturday"}),
		},
		{name: "admin registers for others", token: getToken(t, admin), wantCode: http.StatusCreated, body: newBody(other.ID, "2024-06-10")},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/presences"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var prs presence.Presence
				if err := json.Unmarshal(rec.Body.Bytes(), &prs); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if prs.ID == "" {
					t.Error("failed! no ID assigned")
				}
				if prs.Weekday != presence.Monday {
					t.Errorf("failed! weekday = %s; want %s", prs.Weekday, presence.Monday)
				}
				if prs.OutboundConfirmed || prs.ReturnConfirmed {
					t.Error("failed! confirmation flags must start false")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_presenceApi_presenceQuery(t *testing.T) {
	setup(t)
	pinClock(t, 2024, time.June, 10, 10)

	admin := createUser(t, "Admin", "admin@test.test", "LolC@t123", true, true)
	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	other := createUser(t, "Other", "other@test.test", "LolC@t123", false, true)
	b1 := createBus(t, "Linha Azul", "Campus - Centro")
	b2 := createBus(t, "Linha Verde", "Campus - Zona Sul")

	prs1 := createPresence(t, student.ID, b1.ID, "2024-06-10", true, true)
	prs2 := createPresence(t, student.ID, b2.ID, "2024-06-07", true, false)
	prs3 := createPresence(t, other.ID, b1.ID, "2024-06-10", false, true)

	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/presences", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Roll call needs admin", path: "/v1/presences", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "Roll call defaults to today", path: "/v1/presences", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, prs1, prs3)},
		{name: "Roll call by date", path: "/v1/presences?date=2024-06-07", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, prs2)},
		{name: "Roll call empty day", path: "/v1/presences?date=2024-06-06", token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{
			name: "Roll call invalid date", path: "/v1/presences?date=2024-13-01", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid date"}),
		},
		{name: "Own history", path: "/v1/presences/student/" + student.ID, token: studentToken, wantCode: http.StatusOK, wantData: marchallList(t, prs1, prs2)},
		{name: "Own history scoped to bus", path: "/v1/presences/student/" + student.ID + "?bus=" + b2.ID, token: studentToken, wantCode: http.StatusOK, wantData: marchallList(t, prs2)},
		{
			name: "Others' history forbidden", path: "/v1/presences/student/" + other.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{name: "Admin reads any history", path: "/v1/presences/student/" + other.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, prs3)},
		{name: "Bus history", path: "/v1/presences/bus/" + b1.ID, token: studentToken, wantCode: http.StatusOK, wantData: marchallList(t, prs1, prs3)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_presenceApi_presenceCheckIn(t *testing.T) {
	setup(t)

	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	b := createBus(t, "Linha Azul", "Campus - Centro")
	studentToken := getToken(t, student)

	path := "/v1/presences/check-in/" + b.ID + "/" + student.ID

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, path)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("First scan registers", func(t *testing.T) {
		pinClock(t, 2024, time.June, 10, 7)

		req, rec := newAuthRequest(http.MethodPost, path, studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var prs presence.Presence
		if err := json.Unmarshal(rec.Body.Bytes(), &prs); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if prs.CallDate != "2024-06-10" {
			t.Errorf("failed! callDate = %s; want 2024-06-10", prs.CallDate)
		}
		if !(prs.IntendsOutbound && prs.IntendsReturn) {
			t.Error("failed! on-the-spot registration must intend both legs")
		}
	})

	t.Run("Morning scan confirms outbound", func(t *testing.T) {
		pinClock(t, 2024, time.June, 10, 7)

		req, rec := newAuthRequest(http.MethodPost, path, studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var prs presence.Presence
		if err := json.Unmarshal(rec.Body.Bytes(), &prs); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if !prs.OutboundConfirmed {
			t.Error("failed! outbound leg not confirmed")
		}
		if prs.ReturnConfirmed {
			t.Error("failed! return leg confirmed in the morning")
		}
	})

	t.Run("Evening scan confirms return", func(t *testing.T) {
		pinClock(t, 2024, time.June, 10, 20)

		req, rec := newAuthRequest(http.MethodPost, path, studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var prs presence.Presence
		if err := json.Unmarshal(rec.Body.Bytes(), &prs); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if !prs.ReturnConfirmed {
			t.Error("failed! return leg not confirmed")
		}
	})

	t.Run("Weekend scan cannot register", func(t *testing.T) {
		pinClock(t, 2024, time.June, 15, 7) // Saturday

		req, rec := newAuthRequest(http.MethodPost, path, studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "attendance cannot be registered for a saturday"}),
		}, rec)
	})
}

func Test_presenceApi_presenceConfirm(t *testing.T) {
	setup(t)
	pinClock(t, 2024, time.June, 10, 10)

	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	other := createUser(t, "Other", "other@test.test", "LolC@t123", false, true)
	b := createBus(t, "Linha Azul", "Campus - Centro")
	prs := createPresence(t, student.ID, b.ID, "2024-06-10", true, true)

	studentToken := getToken(t, student)

	body := func(studentID, callDate string, intendsOutbound, intendsReturn bool) []byte {
		return marchallObj(t, presence.UpdatePresence{
			StudentID:       studentID,
			BusID:           b.ID,
			CallDate:        callDate,
			IntendsOutbound: intendsOutbound,
			IntendsReturn:   intendsReturn,
		})
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Cannot confirm for others", token: studentToken, body: body(other.ID, "2024-06-10", true, true),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "Nonexistent date", token: studentToken, body: body(student.ID, "2024-02-30", true, true),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid date"}),
		},
		{
			name: "No record for the day", token: studentToken, body: body(student.ID, "2024-06-11", true, true),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "presence not found"}),
		},
		{name: "Morning confirm (explicit date)", token: studentToken, body: body(student.ID, "2024-06-10", true, true), wantCode: http.StatusOK},
		{name: "Morning confirm (defaults to today)", token: studentToken, body: body(student.ID, "", true, true), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = "/v1/presences/confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var got presence.Presence
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if got.ID != prs.ID {
					t.Errorf("failed! id = %s; want %s", got.ID, prs.ID)
				}
				if !got.OutboundConfirmed {
					t.Error("failed! outbound leg not confirmed")
				}
				if got.ReturnConfirmed {
					t.Error("failed! return leg confirmed in the morning")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_presenceApi_presenceSetStatus(t *testing.T) {
	setup(t)
	pinClock(t, 2024, time.June, 10, 10)

	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	b := createBus(t, "Linha Azul", "Campus - Centro")
	prs := createPresence(t, student.ID, b.ID, "2024-06-10", true, true)

	studentToken := getToken(t, student)
	unknownID := "3ec069bc-4006-4a35-b0a3-5a2b2dd72fdf"

	statusBody := func(confirmed bool, leg presence.Leg) []byte {
		return marchallObj(t, presence.ConfirmationStatus{Confirmed: confirmed, Leg: leg})
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/presences/" + prs.ID + "/status", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Leg required", path: "/v1/presences/" + prs.ID + "/status", token: studentToken,
			body: marchallObj(t, map[string]bool{"confirmed": true}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"leg": "this field is required"}),
		},
		{
			name: "Unknown leg", path: "/v1/presences/" + prs.ID + "/status", token: studentToken,
			body: statusBody(true, "sideways"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"leg": "leg must be one of [outbound return]"}),
		},
		{
			name: "Unknown record", path: "/v1/presences/" + unknownID + "/status", token: studentToken,
			body: statusBody(true, presence.LegOutbound), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "presence not found"}),
		},
		{name: "Outbound set", path: "/v1/presences/" + prs.ID + "/status", token: studentToken, body: statusBody(true, presence.LegOutbound), wantCode: http.StatusOK},
		{name: "Return set", path: "/v1/presences/" + prs.ID + "/status", token: studentToken, body: statusBody(true, presence.LegReturn), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var got presence.Presence
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				// exactly one leg is set per call
				switch tt.name {
				case "Outbound set":
					if !got.OutboundConfirmed || got.ReturnConfirmed {
						t.Errorf("failed! flags = (%v, %v); want (true, false)", got.OutboundConfirmed, got.ReturnConfirmed)
					}
				case "Return set":
					if got.OutboundConfirmed || !got.ReturnConfirmed {
						t.Errorf("failed! flags = (%v, %v); want (false, true)", got.OutboundConfirmed, got.ReturnConfirmed)
					}
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_presenceApi_presenceDestroyByStudent(t *testing.T) {
	setup(t)
	pinClock(t, 2024, time.June, 10, 10)

	admin := createUser(t, "Admin", "admin@test.test", "LolC@t123", true, true)
	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	b := createBus(t, "Linha Azul", "Campus - Centro")
	createPresence(t, student.ID, b.ID, "2024-06-10", true, true)
	createPresence(t, student.ID, b.ID, "2024-06-07", true, true)

	adminToken := getToken(t, admin)
	unknownID := "3ec069bc-4006-4a35-b0a3-5a2b2dd72fdf"

	tests := []httpTest{
		{name: "Auth required", path: "/v1/presences/student/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/presences/student/" + student.ID, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "No records", path: "/v1/presences/student/" + unknownID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "presence not found"}),
		},
		{name: "Destroyed", path: "/v1/presences/student/" + student.ID, token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				prss, err := prsRepo.QueryPresencesByStudent(context.Background(), student.ID, "")
				if err != nil {
					t.Fatalf("QueryPresencesByStudent(): %v", err)
				}
				if len(prss) != 0 {
					t.Errorf("failed! %d records left behind", len(prss))
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
