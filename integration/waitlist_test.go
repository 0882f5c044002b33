package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/akeren/atelier-waitlist/config"
	"github.com/akeren/atelier-waitlist/config/router"
	"github.com/akeren/atelier-waitlist/domain"
	"github.com/akeren/atelier-waitlist/internal/log"
	"github.com/akeren/atelier-waitlist/internal/models"
	"github.com/akeren/atelier-waitlist/pkg/postgrest"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type joinResponse struct {
	Code int `json:"code"`
	Data struct {
		Email        string `json:"email"`
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	} `json:"data"`
	Message string `json:"message"`
}

// waitlistSuite holds the HTTP checks shared by every backend.
type waitlistSuite struct {
	suite.Suite
	server    *httptest.Server
	appConfig *config.ApplicationConfig
}

func (s *waitlistSuite) start(appConfig *config.ApplicationConfig) {
	s.T().Setenv("METRICS_ENABLED", "true")

	appConfig.Logger = log.NewLoggerWithJSONOutput()
	appConfig.Config = &config.AppConfig{TwitterURL: "https://twitter.com/useatelieros"}
	appConfig.RouterService = router.CreateRouterService(appConfig.Logger, nil)

	s.Require().NoError(domain.SetupCoreDomain(appConfig))

	s.appConfig = appConfig
	s.server = httptest.NewServer(appConfig.RouterService.GetEngine())
}

func (s *waitlistSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.appConfig != nil {
		s.appConfig.Cleanup()
	}
}

func (s *waitlistSuite) join(email string) (int, joinResponse) {
	body, _ := json.Marshal(map[string]string{"email": email})

	resp, err := http.Post(s.server.URL+"/v1/waitlist", "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out joinResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *waitlistSuite) postForm(email string) (int, string) {
	resp, err := http.PostForm(s.server.URL+"/", url.Values{"email": {email}})
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, string(body)
}

func (s *waitlistSuite) get(path string) (int, string) {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, string(body)
}

func (s *waitlistSuite) TestLandingPage() {
	code, body := s.get("/")

	s.Equal(http.StatusOK, code)
	s.Contains(body, "Effortless client management")
	s.Contains(body, `data-status="idle"`)
}

func (s *waitlistSuite) TestJoinThenDuplicate() {
	code, resp := s.join("new@x.com")
	s.Equal(http.StatusCreated, code)
	s.Equal("success", resp.Data.Status)
	s.Empty(resp.Data.Email)

	code, resp = s.join("new@x.com")
	s.Equal(http.StatusConflict, code)
	s.Equal("error", resp.Data.Status)
	s.Equal("You're already on the waitlist!", resp.Data.ErrorMessage)
	s.Equal("new@x.com", resp.Data.Email)
}

func (s *waitlistSuite) TestFormPostThenDuplicate() {
	code, body := s.postForm("form@x.com")
	s.Equal(http.StatusOK, code)
	s.Contains(body, `data-status="success"`)

	code, body = s.postForm("form@x.com")
	s.Equal(http.StatusConflict, code)
	s.Contains(body, "You&#39;re already on the waitlist!")
}

func (s *waitlistSuite) TestHealth() {
	code, body := s.get("/health")

	s.Equal(http.StatusOK, code)
	s.Contains(body, `"datastore":1`)
}

func (s *waitlistSuite) TestMetricsCountSignups() {
	s.join("metrics@x.com")

	code, body := s.get("/metrics")

	s.Equal(http.StatusOK, code)
	s.Contains(body, `waitlist_signups_total{outcome="success"}`)
}

// SQLiteWaitlistSuite runs the stack against the gorm repository.
type SQLiteWaitlistSuite struct {
	waitlistSuite
	db *gorm.DB
}

func (s *SQLiteWaitlistSuite) SetupSuite() {
	logger := log.NewLoggerWithJSONOutput()
	store := &config.StoreConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(s.T().TempDir(), "waitlist.db"),
	}

	db, err := config.NewDatabase(logger, store, nil)
	s.Require().NoError(err)
	s.Require().NoError(config.AutoMigrate(logger, db, models.ModelRegistry...))
	s.db = db

	s.start(&config.ApplicationConfig{DB: db, Store: store})
}

func (s *SQLiteWaitlistSuite) TestRowIsPersisted() {
	s.join("persisted@x.com")

	var count int64
	s.Require().NoError(s.db.Model(&models.WaitlistEntry{}).Where("email = ?", "persisted@x.com").Count(&count).Error)
	s.Equal(int64(1), count)
}

// fakeTableService mimics the hosted table endpoints used by the REST repository.
type fakeTableService struct {
	mu      sync.Mutex
	emails  map[string]bool
	selects int
	inserts int
	apiKeys []string
}

func (f *fakeTableService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.apiKeys = append(f.apiKeys, r.Header.Get("apikey"))
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.selects++
		rows := []map[string]string{}
		if email, ok := strings.CutPrefix(r.URL.Query().Get("email"), "eq."); ok && f.emails[email] {
			rows = append(rows, map[string]string{"email": email})
		}
		_ = json.NewEncoder(w).Encode(rows)
	case http.MethodPost:
		f.inserts++
		var rows []map[string]string
		_ = json.NewDecoder(r.Body).Decode(&rows)
		for _, row := range rows {
			if f.emails[row["email"]] {
				w.WriteHeader(http.StatusConflict)
				_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint"}`)
				return
			}
		}
		for _, row := range rows {
			f.emails[row["email"]] = true
		}
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SupabaseWaitlistSuite runs the stack against a fake hosted table service.
type SupabaseWaitlistSuite struct {
	waitlistSuite
	table    *fakeTableService
	upstream *httptest.Server
}

func (s *SupabaseWaitlistSuite) SetupSuite() {
	s.table = &fakeTableService{emails: map[string]bool{}}
	s.upstream = httptest.NewServer(s.table)

	store := &config.StoreConfig{
		Backend:         config.BackendSupabase,
		SupabaseURL:     s.upstream.URL,
		SupabaseAnonKey: "anon-key",
	}

	client, err := postgrest.NewClient(postgrest.Config{URL: store.SupabaseURL, APIKey: store.SupabaseAnonKey})
	s.Require().NoError(err)

	s.start(&config.ApplicationConfig{DataClient: client, Store: store})
}

func (s *SupabaseWaitlistSuite) TearDownSuite() {
	s.waitlistSuite.TearDownSuite()
	if s.upstream != nil {
		s.upstream.Close()
	}
}

func (s *SupabaseWaitlistSuite) TestOneSelectAndOneInsertPerSignup() {
	s.table.mu.Lock()
	selects, inserts := s.table.selects, s.table.inserts
	s.table.mu.Unlock()

	s.join("counted@x.com")
	s.join("counted@x.com")

	s.table.mu.Lock()
	defer s.table.mu.Unlock()

	s.Equal(selects+2, s.table.selects)
	s.Equal(inserts+1, s.table.inserts)
	for _, key := range s.table.apiKeys {
		s.Equal("anon-key", key)
	}
}

func (s *SupabaseWaitlistSuite) TestHealthReportsBreaker() {
	_, body := s.get("/health")

	s.Contains(body, `"backend":"supabase"`)
	s.Contains(body, `"breaker":"closed"`)
}

func skipUnlessIntegration(t *testing.T) {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration tests. Set RUN_INTEGRATION_TESTS=true to run them")
	}
}

func TestSQLiteWaitlistSuite(t *testing.T) {
	skipUnlessIntegration(t)
	suite.Run(t, new(SQLiteWaitlistSuite))
}

func TestSupabaseWaitlistSuite(t *testing.T) {
	skipUnlessIntegration(t)
	suite.Run(t, new(SupabaseWaitlistSuite))
}
