package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/yzGabiru/callback/core/bus"
)

func Test_busApi_busQuery(t *testing.T) {
	setup(t)

	b1 := createBus(t, "Linha Azul", "Campus - Centro")
	b2 := createBus(t, "Linha Verde", "Campus - Zona Sul")

	// bus listing is public: riders pick their bus before registering
	tests := []httpTest{
		{name: "No auth needed", wantCode: http.StatusOK, wantData: marchallList(t, b1, b2)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/buses"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_busApi_busCreate(t *testing.T) {
	setup(t)

	admin := createUser(t, "Admin", "admin@test.test", "LolC@t123", true, true)
	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	createBus(t, "Linha Azul", "Campus - Centro")

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			body: marchallObj(t, bus.NewBus{Name: "Linha Amarela"}), wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "Name required", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "Name taken", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, bus.NewBus{Name: "Linha Azul"}),
			wantData: marchallObj(t, map[string]string{"name": "a bus with this name already exists"}),
		},
		{
			name: "Created", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, bus.NewBus{Name: "Linha Amarela", Description: "Campus - Zona Norte"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/buses"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var b bus.Bus
				if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if b.ID == "" {
					t.Error("failed! no ID assigned")
				}
				if b.Name != "Linha Amarela" {
					t.Errorf("failed! name = %s; want Linha Amarela", b.Name)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_busApi_busDetail(t *testing.T) {
	setup(t)

	admin := createUser(t, "Admin", "admin@test.test", "LolC@t123", true, true)
	student := createUser(t, "Hero", "hero@test.test", "LolC@t123", false, true)
	b := createBus(t, "Linha Azul", "Campus - Centro")
	other := createBus(t, "Linha Verde", "Campus - Zona Sul")

	adminToken := getToken(t, admin)
	unknownID := "3ec069bc-4006-4a35-b0a3-5a2b2dd72fdf"

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/buses/" + b.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", method: http.MethodGet, path: "/v1/buses/" + b.ID, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{name: "Retrieved", method: http.MethodGet, path: "/v1/buses/" + b.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, b)},
		{
			name: "Unknown bus", method: http.MethodGet, path: "/v1/buses/" + unknownID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "bus not found"}),
		},
		{
			name: "Name taken on update", method: http.MethodPut, path: "/v1/buses/" + b.ID, token: adminToken,
			body:     marchallObj(t, bus.UpdateBus{Name: other.Name}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "a bus with this name already exists"}),
		},
		{
			name: "Updated", method: http.MethodPut, path: "/v1/buses/" + b.ID, token: adminToken,
			body: marchallObj(t, bus.UpdateBus{Description: "Campus - Rodoviaria"}), wantCode: http.StatusOK,
		},
		{
			name: "Unknown bus on delete", method: http.MethodDelete, path: "/v1/buses/" + unknownID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "bus not found"}),
		},
		{name: "Deleted", method: http.MethodDelete, path: "/v1/buses/" + b.ID, token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			switch {
			case tt.name == "Updated":
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var updated bus.Bus
				if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if updated.Name != b.Name {
					t.Errorf("failed! name = %s; want %s", updated.Name, b.Name)
				}
				if updated.Description != "Campus - Rodoviaria" {
					t.Errorf("failed! description = %s; want Campus - Rodoviaria", updated.Description)
				}
			case tt.wantCode == http.StatusNoContent:
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				if _, err := busRepo.GetBusByID(context.Background(), b.ID); err == nil {
					t.Error("failed! bus still exists")
				}
			default:
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}
