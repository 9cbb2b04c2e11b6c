package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/homeassistant"
	"github.com/tbourn/pill-mate/internal/http/middleware"
	"github.com/tbourn/pill-mate/internal/services"
)

const (
	aliceHA = "c355d2aaeee44e4e84ff8394fa4794a9"
	bobHA   = "0123456789abcdef0123456789abcdef"
	eveHA   = "ffffffffffffffffffffffffffffffff"
)

//
// Stub services
//

type stubUsers struct {
	registered []string
	device     *string
	deviceSet  bool
	addErr     error
	helped     []domain.User
}

func (s *stubUsers) Register(_ context.Context, haID string, role domain.UserRole) (*domain.User, error) {
	if haID == aliceHA || haID == bobHA {
		return nil, services.ErrUserExists
	}
	s.registered = append(s.registered, haID)
	return &domain.User{ID: 9, HomeAssistantUserID: haID, Role: role}, nil
}

func (s *stubUsers) SetMobileAppDevice(_ context.Context, u *domain.User, device *string) error {
	s.deviceSet, s.device = true, device
	u.MobileAppDevice = device
	return nil
}

func (s *stubUsers) AddHelped(_ context.Context, helper *domain.User, helpedID uint) (*domain.User, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.User{ID: helpedID, Role: domain.RoleHelped}, nil
}

func (s *stubUsers) HelpedUsers(context.Context, *domain.User) ([]domain.User, error) {
	return s.helped, nil
}

type stubMeds struct {
	items   map[uint]*domain.Medication
	created []services.MedicationInput
	patch   services.MedicationPatch
	nextID  uint
}

func newStubMeds() *stubMeds {
	ind := "red"
	return &stubMeds{
		items: map[uint]*domain.Medication{
			3: {ID: 3, Name: "Paracetamol", Indication: &ind, Quantity: 10, Unit: domain.UnitTablet, UserID: 1},
		},
		nextID: 100,
	}
}

func (s *stubMeds) List(_ context.Context, caller *domain.User) ([]domain.Medication, error) {
	var out []domain.Medication
	for _, m := range s.items {
		if m.UserID == caller.ID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *stubMeds) Create(_ context.Context, caller *domain.User, in services.MedicationInput) (*domain.Medication, error) {
	if in.Quantity <= 0 {
		return nil, &services.ValidationError{Message: "Invalid quantity."}
	}
	if in.UserID != nil && *in.UserID != caller.ID {
		if caller.Role == domain.RoleHelped {
			return nil, services.ErrForbidden
		}
		return nil, services.ErrHelpedUserNotFound
	}
	s.created = append(s.created, in)
	m := &domain.Medication{ID: s.nextID, Name: in.Name, Indication: in.Indication, Quantity: in.Quantity, Unit: in.Unit, UserID: caller.ID}
	s.items[m.ID] = m
	s.nextID++
	return m, nil
}

func (s *stubMeds) Get(_ context.Context, caller *domain.User, id uint) (*domain.Medication, error) {
	m, ok := s.items[id]
	if !ok || m.UserID != caller.ID {
		return nil, services.ErrMedicationNotFound
	}
	return m, nil
}

func (s *stubMeds) Update(ctx context.Context, caller *domain.User, id uint, p services.MedicationPatch) (*domain.Medication, error) {
	m, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	s.patch = p
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.SetIndication {
		m.Indication = p.Indication
	}
	return m, nil
}

func (s *stubMeds) Delete(ctx context.Context, caller *domain.User, id uint) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	delete(s.items, id)
	return nil
}

type stubReminders struct {
	items   map[uint]*domain.Reminder
	created []services.ReminderInput
	patch   services.ReminderPatch
	count   int
	failGet error
}

func newStubReminders() *stubReminders {
	return &stubReminders{items: map[uint]*domain.Reminder{
		7: {ID: 7, Time: "08:00", Frequency: 1, Quantity: 1, NextDate: "2025-03-16", MedicationID: 3, UserID: 1},
	}}
}

func (s *stubReminders) List(_ context.Context, caller *domain.User) ([]domain.Reminder, error) {
	var out []domain.Reminder
	for _, r := range s.items {
		if r.UserID == caller.ID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubReminders) ListFor(ctx context.Context, caller *domain.User, target uint) ([]domain.Reminder, error) {
	switch {
	case target == caller.ID:
		return s.List(ctx, caller)
	case caller.Role == domain.RoleHelped:
		return nil, services.ErrForbidden
	case target == 1:
		return s.List(ctx, &domain.User{ID: 1})
	}
	return nil, services.ErrUserNotFound
}

func (s *stubReminders) Create(_ context.Context, caller *domain.User, in services.ReminderInput) (*domain.Reminder, error) {
	if in.MedicationID != 3 {
		return nil, services.ErrMedicationNotFound
	}
	s.created = append(s.created, in)
	r := &domain.Reminder{ID: 50, Time: in.Time, Frequency: in.Frequency, Quantity: in.Quantity, NextDate: "2025-03-15", MedicationID: in.MedicationID, UserID: caller.ID}
	s.items[r.ID] = r
	return r, nil
}

func (s *stubReminders) Get(_ context.Context, caller *domain.User, id uint) (*domain.Reminder, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	r, ok := s.items[id]
	if !ok || r.UserID != caller.ID {
		return nil, services.ErrReminderNotFound
	}
	return r, nil
}

func (s *stubReminders) Update(ctx context.Context, caller *domain.User, id uint, p services.ReminderPatch) (*domain.Reminder, error) {
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if p.NextDate != nil && *p.NextDate < "2025-03-15" {
		return nil, services.ErrNextDateInPast
	}
	s.patch = p
	return r, nil
}

func (s *stubReminders) Delete(ctx context.Context, caller *domain.User, id uint) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	delete(s.items, id)
	return nil
}

func (s *stubReminders) Occurrences(ctx context.Context, caller *domain.User, id uint, count int) ([]time.Time, error) {
	if count < 1 || count > services.MaxOccurrences {
		return nil, &services.ValidationError{Message: "Invalid count."}
	}
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	s.count = count
	start := time.Date(2025, 3, 16, 8, 0, 0, 0, time.UTC)
	out := make([]time.Time, count)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out, nil
}

type stubDevices struct {
	devices []homeassistant.Device
	err     error
}

func (s stubDevices) MobileAppDevices(context.Context) ([]homeassistant.Device, error) {
	return s.devices, s.err
}

type rememberCall struct {
	userID     uint
	scope, key string
	resourceID uint
	status     int
}

type stubIdem struct{ calls []rememberCall }

func (s *stubIdem) Remember(_ context.Context, userID uint, scope, key string, resourceID uint, status int) error {
	s.calls = append(s.calls, rememberCall{userID, scope, key, resourceID, status})
	return nil
}

//
// Test router
//

type testEnv struct {
	users  *stubUsers
	meds   *stubMeds
	rems   *stubReminders
	idem   *stubIdem
	router *gin.Engine
	// replay maps an Idempotency-Key to the resource id reported by the lookup.
	replay map[string]uint
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		users:  &stubUsers{},
		meds:   newStubMeds(),
		rems:   newStubReminders(),
		idem:   &stubIdem{},
		replay: map[string]uint{},
	}
	deps := Deps{
		Users:       env.users,
		Medications: env.meds,
		Reminders:   env.rems,
		Devices: stubDevices{devices: []homeassistant.Device{
			{Name: "Pixel 7"}, {Name: "iPad"},
		}},
		Idempotency: env.idem,
		ReminderStats: func(context.Context, uint) (int64, *time.Time, error) {
			ts := time.Unix(1700000000, 0)
			return 1, &ts, nil
		},
	}
	for _, o := range opts {
		o(&deps)
	}
	h := New(deps)

	people := map[string]*domain.User{
		aliceHA: {ID: 1, HomeAssistantUserID: aliceHA, Role: domain.RoleHelped},
		bobHA:   {ID: 2, HomeAssistantUserID: bobHA, Role: domain.RoleHelper},
	}
	lookup := func(_ context.Context, haID string) (*domain.User, error) {
		if u, ok := people[haID]; ok {
			cp := *u
			return &cp, nil
		}
		return nil, nil
	}
	idemLookup := func(_ context.Context, _, _, key string) (uint, bool, error) {
		id, ok := env.replay[key]
		return id, ok, nil
	}

	r := gin.New()
	api := r.Group("/api", middleware.HomeAssistantHeaders(), middleware.ApplicationJSON(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idemLookup))
	api.POST("/user", h.CreateUser)

	authed := api.Group("", middleware.RequireUser(lookup))
	authed.GET("/user/me", h.Me)
	authed.PATCH("/user/me", h.UpdateMe)
	authed.GET("/user/helped", h.ListHelpedUsers)
	authed.POST("/user/helped", h.AddHelpedUser)
	authed.GET("/user/:id/reminders", h.UserReminders)
	authed.GET("/medication", h.ListMedications)
	authed.POST("/medication", h.CreateMedication)
	authed.GET("/medication/:id", h.GetMedication)
	authed.PATCH("/medication/:id", h.PatchMedication)
	authed.DELETE("/medication/:id", h.DeleteMedication)
	authed.GET("/reminder", h.ListReminders)
	authed.POST("/reminder", h.CreateReminder)
	authed.GET("/reminder/:id", h.GetReminder)
	authed.PATCH("/reminder/:id", h.PatchReminder)
	authed.DELETE("/reminder/:id", h.DeleteReminder)
	authed.GET("/reminder/:id/occurrences", h.ReminderOccurrences)
	authed.GET("/homeassistant/mobile-app-devices", h.MobileAppDevices)

	env.router = r
	return env
}

// do sends an ingress request as the Home Assistant user haID.
func (e *testEnv) do(t *testing.T, method, path, haID, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(middleware.HeaderRemoteUserID, haID)
	req.Header.Set(middleware.HeaderRemoteUserName, "alice")
	req.Header.Set(middleware.HeaderRemoteUserDisplayName, "Alice")
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Message != msg {
		t.Fatalf("message=%q want %q", er.Message, msg)
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return v
}

//
// Tests
//

func TestServiceError_Mapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{&services.ValidationError{Message: "Invalid time."}, 400, "Invalid time."},
		{services.ErrUserExists, 400, "The user already exists."},
		{services.ErrNextDateInPast, 400, "nextDate must be in the future."},
		{services.ErrUserNotRegistered, 401, "User not registered."},
		{services.ErrForbidden, 403, "custom"},
		{services.ErrUserNotFound, 404, "User not found."},
		{services.ErrHelpedUserNotFound, 404, "Helped user not found."},
		{services.ErrMedicationNotFound, 404, "Medication not found."},
		{services.ErrReminderNotFound, 404, "Reminder not found."},
		{context.DeadlineExceeded, 503, "Service unavailable."},
		{errors.New("disk on fire"), 500, "Internal Server Error."},
	}
	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		serviceError(c, tt.err, "custom")
		expectError(t, w, tt.status, tt.msg)
	}
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(t, http.MethodPost, "/api/user", eveHA, `{}`), 400, "role is required.")
	expectError(t, env.do(t, http.MethodPost, "/api/user", eveHA, `{"role":7}`), 400, "Invalid role.")
	expectError(t, env.do(t, http.MethodPost, "/api/user", eveHA, `{"role":"HELPED"}`), 400, "Invalid role.")
	expectError(t, env.do(t, http.MethodPost, "/api/user", eveHA, `{"role":0,"unexpectedKey":1}`), 400, "Unexpected key: unexpectedKey")
	expectError(t, env.do(t, http.MethodPost, "/api/user", aliceHA, `{"role":0}`), 400, "The user already exists.")

	w := env.do(t, http.MethodPost, "/api/user", eveHA, `{"role":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decode[UserResponse](t, w)
	if got.HomeAssistantUserID != eveHA || got.Role != domain.RoleHelper || got.UserName != "alice" || got.UserDisplayName != "Alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestMeAndUpdateMe(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(t, http.MethodGet, "/api/user/me", eveHA, ""), 401, "User not registered.")

	w := env.do(t, http.MethodGet, "/api/user/me", aliceHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if me := decode[UserResponse](t, w); me.ID != 1 || me.MobileAppDevice != nil {
		t.Fatalf("unexpected me: %+v", me)
	}

	w = env.do(t, http.MethodPatch, "/api/user/me", aliceHA, `{"mobileAppDevice":"Pixel 7"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if me := decode[UserResponse](t, w); me.MobileAppDevice == nil || *me.MobileAppDevice != "Pixel 7" {
		t.Fatalf("device not set: %+v", me)
	}

	env.do(t, http.MethodPatch, "/api/user/me", aliceHA, `{"mobileAppDevice":null}`)
	if !env.users.deviceSet || env.users.device != nil {
		t.Fatalf("null should clear the device")
	}
	expectError(t, env.do(t, http.MethodPatch, "/api/user/me", aliceHA, `{"mobileAppDevice":3}`), 400, "Invalid mobileAppDevice.")
}

func TestHelpedUsers(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/user/helped", bobHA, "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	expectError(t, env.do(t, http.MethodPost, "/api/user/helped", bobHA, `{}`), 400, "helpedUserId is required.")
	expectError(t, env.do(t, http.MethodPost, "/api/user/helped", bobHA, `{"helpedUserId":"1"}`), 400, "Invalid helpedUserId.")

	w = env.do(t, http.MethodPost, "/api/user/helped", bobHA, `{"helpedUserId":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	env.users.addErr = services.ErrForbidden
	expectError(t, env.do(t, http.MethodPost, "/api/user/helped", aliceHA, `{"helpedUserId":2}`), 403,
		"You do not have permission to access this resource.")
}

func TestUserReminders(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(t, http.MethodGet, "/api/user/abc/reminders", aliceHA, ""), 400, "Invalid parameter: id.")
	expectError(t, env.do(t, http.MethodGet, "/api/user/2/reminders", aliceHA, ""), 403,
		"You do not have permission to access this resource.")
	expectError(t, env.do(t, http.MethodGet, "/api/user/42/reminders", bobHA, ""), 404, "User not found.")

	w := env.do(t, http.MethodGet, "/api/user/1/reminders", bobHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := decode[[]domain.Reminder](t, w); len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("unexpected reminders: %+v", got)
	}

	w = env.do(t, http.MethodGet, "/api/user/2/reminders", bobHA, "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("own empty list: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateMedication_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		body string
		msg  string
	}{
		{`{"quantity":1,"unit":0}`, "name is required."},
		{`{"name":1,"quantity":1,"unit":0}`, "Invalid name."},
		{`{"name":"a","indication":5,"quantity":1,"unit":0}`, "Invalid indication."},
		{`{"name":"a","unit":0}`, "quantity is required."},
		{`{"name":"a","quantity":"1","unit":0}`, "Invalid quantity."},
		{`{"name":"a","quantity":0,"unit":0}`, "Invalid quantity."},
		{`{"name":"a","quantity":1}`, "unit is required."},
		{`{"name":"a","quantity":1,"unit":9}`, "Invalid unit."},
		{`{"name":"a","quantity":1,"unit":0,"userId":"2"}`, "Invalid userId."},
		{`{"name":"a","quantity":1,"unit":0,"color":"red"}`, "Unexpected key: color"},
	}
	for _, tt := range tests {
		expectError(t, env.do(t, http.MethodPost, "/api/medication", aliceHA, tt.body), 400, tt.msg)
	}
	if len(env.meds.created) != 0 {
		t.Fatalf("nothing should be created")
	}
}

func TestCreateMedication_Owners(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(t, http.MethodPost, "/api/medication", aliceHA, `{"name":"a","quantity":1,"unit":0,"userId":2}`),
		403, "Your not allowed to add a reminder for an other user.")
	expectError(t, env.do(t, http.MethodPost, "/api/medication", bobHA, `{"name":"a","quantity":1,"unit":0,"userId":42}`),
		404, "Helped user not found.")

	w := env.do(t, http.MethodPost, "/api/medication", aliceHA, `{"name":"Ibuprofen","indication":null,"quantity":12,"unit":1,"userId":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	m := decode[domain.Medication](t, w)
	if m.Name != "Ibuprofen" || m.Indication != nil || m.Quantity != 12 || m.Unit != domain.UnitCapsule || m.UserID != 1 {
		t.Fatalf("unexpected medication: %+v", m)
	}
}

func TestCreateMedication_Idempotency(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name":"Ibuprofen","quantity":12,"unit":1}`

	w := env.do(t, http.MethodPost, "/api/medication", aliceHA, body, middleware.HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	created := decode[domain.Medication](t, w)
	if len(env.idem.calls) != 1 {
		t.Fatalf("expected one Remember call, got %d", len(env.idem.calls))
	}
	call := env.idem.calls[0]
	if call.userID != 1 || call.key != "k-1" || call.scope != "POST /api/medication" || call.resourceID != created.ID || call.status != http.StatusCreated {
		t.Fatalf("unexpected Remember call: %+v", call)
	}

	// The lookup now reports the key: the retry returns the same medication.
	env.replay["k-1"] = created.ID
	w = env.do(t, http.MethodPost, "/api/medication", aliceHA, body, middleware.HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusOK {
		t.Fatalf("replay status=%d body=%s", w.Code, w.Body.String())
	}
	if got := decode[domain.Medication](t, w); got.ID != created.ID {
		t.Fatalf("replay returned %d, want %d", got.ID, created.ID)
	}
	if len(env.meds.created) != 1 {
		t.Fatalf("replay must not create, created=%d", len(env.meds.created))
	}

	// A replay whose medication was deleted creates again.
	env.replay["k-2"] = 9999
	w = env.do(t, http.MethodPost, "/api/medication", aliceHA, body, middleware.HeaderIdempotencyKey, "k-2")
	if w.Code != http.StatusCreated {
		t.Fatalf("stale replay status=%d", w.Code)
	}
}

func TestMedicationCRUD(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/medication", aliceHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := decode[[]domain.Medication](t, w); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("unexpected list: %+v", got)
	}
	// No stats func wired for medications: no ETag.
	if w.Header().Get("ETag") != "" {
		t.Fatalf("unexpected ETag")
	}

	expectError(t, env.do(t, http.MethodGet, "/api/medication/x", aliceHA, ""), 400, "Invalid parameter: id.")
	expectError(t, env.do(t, http.MethodGet, "/api/medication/3", bobHA, ""), 404, "Medication not found.")

	w = env.do(t, http.MethodPatch, "/api/medication/3", aliceHA, `{"name":"Doliprane","indication":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if m := decode[domain.Medication](t, w); m.Name != "Doliprane" || m.Indication != nil {
		t.Fatalf("unexpected patched medication: %+v", m)
	}
	if !env.meds.patch.SetIndication || env.meds.patch.Quantity != nil || env.meds.patch.Unit != nil {
		t.Fatalf("unexpected patch: %+v", env.meds.patch)
	}
	expectError(t, env.do(t, http.MethodPatch, "/api/medication/3", aliceHA, `{"unit":-1}`), 400, "Invalid unit.")
	expectError(t, env.do(t, http.MethodPatch, "/api/medication/3", aliceHA, `{"quantity":true}`), 400, "Invalid quantity.")
	expectError(t, env.do(t, http.MethodPatch, "/api/medication/3", aliceHA, `{"userId":2}`), 400, "Unexpected key: userId")

	w = env.do(t, http.MethodDelete, "/api/medication/3", aliceHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := decode[MessageResponse](t, w); got.Message != "Medication removed successfully." {
		t.Fatalf("unexpected message: %q", got.Message)
	}
	expectError(t, env.do(t, http.MethodDelete, "/api/medication/3", aliceHA, ""), 404, "Medication not found.")
}

func TestCreateReminder(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		body   string
		status int
		msg    string
	}{
		{`{"frequency":1,"quantity":1,"medicationId":3}`, 400, "time is required."},
		{`{"time":8,"frequency":1,"quantity":1,"medicationId":3}`, 400, "Invalid time."},
		{`{"time":"08:00","quantity":1,"medicationId":3}`, 400, "frequency is required."},
		{`{"time":"08:00","frequency":1.5,"quantity":1,"medicationId":3}`, 400, "Invalid frequency."},
		{`{"time":"08:00","frequency":1,"medicationId":3}`, 400, "quantity is required."},
		{`{"time":"08:00","frequency":1,"quantity":1}`, 400, "medicationId is required."},
		{`{"time":"08:00","frequency":1,"quantity":1,"medicationId":"3"}`, 400, "Invalid medicationId."},
		{`{"time":"08:00","frequency":1,"quantity":1,"medicationId":4}`, 404, "Medication not found."},
		{`{"time":"08:00","frequency":1,"quantity":1,"medicationId":3,"nextDate":"2025-03-20"}`, 400, "Unexpected key: nextDate"},
	}
	for _, tt := range tests {
		expectError(t, env.do(t, http.MethodPost, "/api/reminder", aliceHA, tt.body), tt.status, tt.msg)
	}

	w := env.do(t, http.MethodPost, "/api/reminder", aliceHA, `{"time":"08:00","frequency":2,"quantity":0.5,"medicationId":3}`,
		middleware.HeaderIdempotencyKey, "r-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	r := decode[domain.Reminder](t, w)
	if r.Time != "08:00" || r.Frequency != 2 || r.Quantity != 0.5 || r.UserID != 1 {
		t.Fatalf("unexpected reminder: %+v", r)
	}
	if len(env.idem.calls) != 1 || env.idem.calls[0].scope != "POST /api/reminder" {
		t.Fatalf("unexpected Remember calls: %+v", env.idem.calls)
	}

	env.replay["r-1"] = r.ID
	w = env.do(t, http.MethodPost, "/api/reminder", aliceHA, `{"time":"08:00","frequency":2,"quantity":0.5,"medicationId":3}`,
		middleware.HeaderIdempotencyKey, "r-1")
	if w.Code != http.StatusOK || len(env.rems.created) != 1 {
		t.Fatalf("replay: status=%d created=%d", w.Code, len(env.rems.created))
	}
}

func TestReminderCRUD(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/reminder", aliceHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag != `W/"reminders:1:1:1700000000000000000"` {
		t.Fatalf("unexpected ETag %q", etag)
	}
	w = env.do(t, http.MethodGet, "/api/reminder", aliceHA, "", "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/reminder/7", aliceHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	expectError(t, env.do(t, http.MethodGet, "/api/reminder/7", bobHA, ""), 404, "Reminder not found.")

	w = env.do(t, http.MethodPatch, "/api/reminder/7", aliceHA, `{"time":"09:15","frequency":3,"nextDate":"2025-03-20"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	p := env.rems.patch
	if p.Time == nil || *p.Time != "09:15" || p.Frequency == nil || *p.Frequency != 3 || p.NextDate == nil || p.Quantity != nil || p.MedicationID != nil {
		t.Fatalf("unexpected patch: %+v", p)
	}
	expectError(t, env.do(t, http.MethodPatch, "/api/reminder/7", aliceHA, `{"nextDate":"2025-03-01"}`), 400, "nextDate must be in the future.")
	expectError(t, env.do(t, http.MethodPatch, "/api/reminder/7", aliceHA, `{"frequency":"2"}`), 400, "Invalid frequency.")
	expectError(t, env.do(t, http.MethodPatch, "/api/reminder/7", aliceHA, `{"nextDate":20250320}`), 400, "Invalid nextDate.")

	w = env.do(t, http.MethodDelete, "/api/reminder/7", aliceHA, "")
	if got := decode[MessageResponse](t, w); w.Code != http.StatusOK || got.Message != "Reminder removed successfully." {
		t.Fatalf("status=%d message=%q", w.Code, got.Message)
	}
	expectError(t, env.do(t, http.MethodDelete, "/api/reminder/7", aliceHA, ""), 404, "Reminder not found.")
}

func TestReminderOccurrences(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/reminder/7/occurrences", aliceHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := decode[OccurrencesResponse](t, w); len(got.Occurrences) != defaultOccurrences {
		t.Fatalf("got %d occurrences", len(got.Occurrences))
	}

	w = env.do(t, http.MethodGet, "/api/reminder/7/occurrences?count=3", aliceHA, "")
	if got := decode[OccurrencesResponse](t, w); len(got.Occurrences) != 3 || env.rems.count != 3 {
		t.Fatalf("got %d occurrences", len(got.Occurrences))
	}

	for _, q := range []string{"0", "51", "abc"} {
		expectError(t, env.do(t, http.MethodGet, "/api/reminder/7/occurrences?count="+q, aliceHA, ""), 400, "Invalid count.")
	}
}

func TestMobileAppDevices(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/homeassistant/mobile-app-devices", aliceHA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := decode[[]string](t, w); len(got) != 2 || got[0] != "Pixel 7" || got[1] != "iPad" {
		t.Fatalf("unexpected devices: %v", got)
	}
	expectError(t, env.do(t, http.MethodGet, "/api/homeassistant/mobile-app-devices", eveHA, ""), 401, "User not registered.")
}

func TestMobileAppDevices_Unavailable(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Devices = stubDevices{err: homeassistant.ErrNotConnected}
	})
	expectError(t, env.do(t, http.MethodGet, "/api/homeassistant/mobile-app-devices", aliceHA, ""), 503, "Home Assistant unavailable.")
}
