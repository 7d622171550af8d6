package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	. "github.com/yzGabiru/callback/apps/api/echo"
	"github.com/yzGabiru/callback/core"
	"github.com/yzGabiru/callback/core/bus"
	"github.com/yzGabiru/callback/core/presence"
	"github.com/yzGabiru/callback/core/user"
	emailsvc "github.com/yzGabiru/callback/services/email"
	logsvc "github.com/yzGabiru/callback/services/logger"
	inmemdb "github.com/yzGabiru/callback/storage/database/inmem"
)

var (
	conf *core.Config
	app  *Server

	usrRepo user.Repository
	busRepo bus.Repository
	prsRepo presence.Repository

	errMissingToken  = httpErr{Error: "missing or malformed jwt"}
	errPermDenied    = httpErr{Error: "permission denied"}
	errNotFoundResp  = httpErr{Error: "not found"}
	errDeactivedResp = httpErr{Error: "account deactivated"}
)

// setup rebuilds the whole stack on a fresh in-memory DB.
func setup(t *testing.T) {
	t.Helper()

	conf = core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	enLocale := en.New()
	uniTranslator := ut.New(enLocale, enLocale)
	translator, _ := uniTranslator.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	busRepo = inmemdb.NewBusRepository(db)
	prsRepo = inmemdb.NewPresenceRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(conf, usrRepo, mailSvc)
	busSvc := bus.NewService(busRepo)
	prsSvc := presence.NewService(prsRepo)

	app = NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		BusSvc:      busSvc,
		PresenceSvc: prsSvc,
		Validate:    validate,
		Translator:  translator,
	})
}

func createUser(t *testing.T, name, email, pwd string, isAdmin, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     "+5511999990000",
		IsAdmin:   isAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func createBus(t *testing.T, name, description string) bus.Bus {
	t.Helper()

	now := time.Now().UTC()
	b, err := busRepo.CreateBus(context.Background(), bus.Bus{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateBus(): %v", err)
	}
	return b
}

func createPresence(t *testing.T, studentID, busID, callDate string, intendsOutbound, intendsReturn bool) presence.Presence {
	t.Helper()

	date, err := presence.ParseCallDate(callDate)
	if err != nil {
		t.Fatalf("ParseCallDate(): %v", err)
	}
	now := time.Now().UTC()
	prs, err := prsRepo.CreatePresence(context.Background(), presence.Presence{
		ID:              uuid.New().String(),
		StudentID:       studentID,
		BusID:           busID,
		CallDate:        callDate,
		Weekday:         presence.WeekdayName(date),
		IntendsOutbound: intendsOutbound,
		IntendsReturn:   intendsReturn,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreatePresence(): %v", err)
	}
	return prs
}

// pinClock pins the attendance clock to a fixed UTC time; restored on cleanup.
func pinClock(t *testing.T, year int, month time.Month, day, hour int) {
	t.Helper()

	origNow, origLoc := presence.NowFunc, presence.Location
	t.Cleanup(func() { presence.NowFunc, presence.Location = origNow, origLoc })
	presence.Location = time.UTC
	presence.NowFunc = func() time.Time {
		return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
