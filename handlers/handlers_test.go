package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"timecard/config"
	"timecard/database"
	"timecard/middleware"
	"timecard/models"
	"timecard/timecard"

	"gorm.io/gorm/logger"
)

var jst = time.FixedZone("JST", 9*60*60)

type testServer struct {
	*httptest.Server
	employee *models.User
	manager  *models.User
	admin    *models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Open("sqlite", dsn, logger.Silent)
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	database.DB = db
	middleware.SetJWTSecret("test-secret")

	ts := &testServer{}
	for _, u := range []struct {
		dst   **models.User
		email string
		role  models.Role
	}{
		{&ts.employee, "emp@example.com", models.RoleEmployee},
		{&ts.manager, "boss@example.com", models.RoleManager},
		{&ts.admin, "root@example.com", models.RoleAdmin},
	} {
		created, err := database.CreateUser(db, u.email, u.email, "password1", u.role)
		if err != nil {
			t.Fatal(err)
		}
		*u.dst = created
	}

	svc := timecard.NewService(database.NewStore(db), timecard.Options{
		Location: jst,
		Now:      func() time.Time { return time.Date(2023, 2, 10, 10, 0, 0, 0, jst) },
	})
	cfg := &config.Config{JWTExpiration: time.Hour}
	ts.Server = httptest.NewServer(NewRouter(cfg, svc))
	t.Cleanup(func() {
		ts.Close()
		sqlDB.Close()
	})
	return ts
}

func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()
	body := strings.NewReader(fmt.Sprintf(`{"email":%q,"password":"password1"}`, email))
	resp, err := http.Post(ts.URL+"/login", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out.Token
}

func (ts *testServer) do(t *testing.T, token, method, path string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return e
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/login", "application/json", strings.NewReader(`{"email":"emp@example.com","password":"nope"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	r, _ := ts.do(t, "", http.MethodGet, "/timecard", nil, "")
	if r.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", r.StatusCode)
	}
	if r.Header.Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestTimecardWorkflow(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.login(t, "emp@example.com")
	boss := ts.login(t, "boss@example.com")

	day := `{"entries":[{"kind":"IN","time":"09:00"},{"kind":"OUT","time":"19:00"},{"kind":"ENTER_BREAK","time":"12:00"},{"kind":"END_BREAK","time":"13:00"}]}`
	resp, data := ts.do(t, emp, http.MethodPut, "/timecard/days/2023-01-02", strings.NewReader(day), "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit day: %d %s", resp.StatusCode, data)
	}
	var dr timecard.DayReport
	if err := json.Unmarshal(data, &dr); err != nil || dr.WorkHours != "9:00" {
		t.Fatalf("edit day response = %s", data)
	}

	bad := `{"entries":[{"kind":"IN","time":"09:00"}]}`
	resp, data = ts.do(t, emp, http.MethodPut, "/timecard/days/2023-01-03", strings.NewReader(bad), "application/json")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid day status = %d", resp.StatusCode)
	}
	if e := decodeError(t, data); e.Code != "VALIDATION_ERROR" || e.Days["3"] != "NEED_WORK_TIME" {
		t.Errorf("invalid day error = %+v", e)
	}

	resp, data = ts.do(t, emp, http.MethodPost, "/timecard/promote?month=202301", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("promote: %d %s", resp.StatusCode, data)
	}
	resp, data = ts.do(t, emp, http.MethodPost, "/timecard/promote?month=202301", nil, "")
	if e := decodeError(t, data); resp.StatusCode != http.StatusConflict || e.Code != "ALREADY_PROMOTED" {
		t.Errorf("second promote = %d %+v", resp.StatusCode, e)
	}

	resp, _ = ts.do(t, emp, http.MethodGet, "/manager/processing", nil, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("employee on manager route = %d", resp.StatusCode)
	}

	resp, data = ts.do(t, boss, http.MethodGet, "/manager/processing", nil, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"month":"202301"`) {
		t.Fatalf("processing = %d %s", resp.StatusCode, data)
	}

	path := fmt.Sprintf("/manager/users/%d/approve?month=202301", ts.employee.ID)
	resp, data = ts.do(t, boss, http.MethodPost, path, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: %d %s", resp.StatusCode, data)
	}
	var sum models.MonthlySummary
	if err := json.Unmarshal(data, &sum); err != nil || sum.TotalWorkHours != "9.0" || sum.WorkedDays != 2 {
		t.Errorf("summary = %s", data)
	}

	resp, data = ts.do(t, boss, http.MethodGet, "/manager/summaries/export?month=202301", nil, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "emp@example.com,202301,9.0,1.0,1") {
		t.Errorf("summary export = %d %s", resp.StatusCode, data)
	}

	path = fmt.Sprintf("/manager/users/%d/demote?month=202301", ts.employee.ID)
	resp, data = ts.do(t, boss, http.MethodPost, path, nil, "")
	if e := decodeError(t, data); resp.StatusCode != http.StatusConflict || e.Code != "NOT_PROCESSING" {
		t.Errorf("demote after approve = %d %+v", resp.StatusCode, e)
	}
}

func TestSelfApprovalRejected(t *testing.T) {
	ts := newTestServer(t)
	boss := ts.login(t, "boss@example.com")
	path := fmt.Sprintf("/manager/users/%d/approve?month=202301", ts.manager.ID)
	resp, data := ts.do(t, boss, http.MethodPost, path, nil, "")
	if e := decodeError(t, data); resp.StatusCode != http.StatusForbidden || e.Code != "SELF_APPROVAL_FORBIDDEN" {
		t.Errorf("self approve = %d %+v", resp.StatusCode, e)
	}
}

func TestStampAndTotals(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.login(t, "emp@example.com")

	resp, data := ts.do(t, emp, http.MethodPost, "/stamps/in", nil, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("stamp: %d %s", resp.StatusCode, data)
	}
	resp, _ = ts.do(t, emp, http.MethodPost, "/stamps/in", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("repeat stamp status = %d, want 200", resp.StatusCode)
	}
	resp, data = ts.do(t, emp, http.MethodPost, "/stamps/lunch", nil, "")
	if e := decodeError(t, data); resp.StatusCode != http.StatusBadRequest || e.Code != "UNSUPPORTED_KIND" {
		t.Errorf("unknown kind = %d %+v", resp.StatusCode, e)
	}

	resp, data = ts.do(t, emp, http.MethodGet, "/timecard/totals?months=2", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("totals: %d %s", resp.StatusCode, data)
	}
	var totals []timecard.MonthTotal
	if err := json.Unmarshal(data, &totals); err != nil || len(totals) != 2 {
		t.Fatalf("totals = %s", data)
	}
	if totals[1].Month != (timecard.Month{Year: 2023, Month: time.February}) {
		t.Errorf("last month = %v", totals[1].Month)
	}

	resp, data = ts.do(t, emp, http.MethodGet, "/timecard/week", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("week: %d %s", resp.StatusCode, data)
	}
	var week timecard.Week
	if err := json.Unmarshal(data, &week); err != nil || len(week.Days) != 7 {
		t.Fatalf("week = %s", data)
	}
	if week.Monday != "2023-02-06" || week.Days[4].Date != "2023-02-10" || week.Days[4].WorkHours != "0.0" {
		t.Errorf("week = %+v", week)
	}

	resp, data = ts.do(t, emp, http.MethodGet, "/timecard?month=2023-13", nil, "")
	if e := decodeError(t, data); resp.StatusCode != http.StatusBadRequest || e.Code != "INVALID_MONTH" {
		t.Errorf("bad month = %d %+v", resp.StatusCode, e)
	}
}

func TestImportCSV(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.login(t, "emp@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "january.csv")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "date,in,out,break_start,break_end\n2023-01-02,09:00,18:00,12:00,13:00\n2023-01-03,09:00,17:00,,\n")
	mw.Close()

	resp, data := ts.do(t, emp, http.MethodPost, "/timecard/import?month=202301", &body, mw.FormDataContentType())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import: %d %s", resp.StatusCode, data)
	}
	var report struct {
		TotalWorkHours string `json:"total_work_hours"`
		WorkedDays     []int  `json:"worked_days"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report.TotalWorkHours != "16:00" || len(report.WorkedDays) != 2 {
		t.Errorf("report = %+v", report)
	}

	resp, data = ts.do(t, emp, http.MethodGet, "/timecard/export?month=202301", nil, "")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(string(data), "PK") {
		t.Errorf("export = %d, %d bytes", resp.StatusCode, len(data))
	}
}

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "root@example.com")
	emp := ts.login(t, "emp@example.com")

	body := `{"email":"new@example.com","full_name":"New Hire","password":"password1","role":"EMPLOYEE"}`
	resp, _ := ts.do(t, emp, http.MethodPost, "/users", strings.NewReader(body), "application/json")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("employee create = %d", resp.StatusCode)
	}
	resp, data := ts.do(t, admin, http.MethodPost, "/users", strings.NewReader(body), "application/json")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin create = %d %s", resp.StatusCode, data)
	}
	resp, data = ts.do(t, admin, http.MethodPost, "/users", strings.NewReader(body), "application/json")
	if e := decodeError(t, data); resp.StatusCode != http.StatusConflict || e.Code != "EMAIL_TAKEN" {
		t.Errorf("duplicate create = %d %+v", resp.StatusCode, e)
	}
}
