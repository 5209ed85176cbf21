package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trendflow/config"
	"trendflow/models"
	"trendflow/pipeline"
	"trendflow/provider/social"
)

type stubShop struct{}

func (stubShop) Search(ctx context.Context, description string, source models.Source) ([]models.RawListing, error) {
	price := "$5.00"
	if source == models.SourceRetail {
		price = "$40.00"
	}
	return []models.RawListing{{Title: "item", PriceText: price, Source: source}}, nil
}

type stubSocial struct{}

func (stubSocial) SearchPage(ctx context.Context, query, cursor string, count int) (*social.Page, error) {
	return &social.Page{Posts: []models.RawPost{{
		CreatedAtEpoch: time.Now().Add(-24 * time.Hour).Unix(),
		Likes:          10,
		Comments:       2,
		Shares:         1,
	}}}, nil
}

func (stubSocial) HashtagID(ctx context.Context, name string) (string, error) {
	return "", nil
}

func (stubSocial) HashtagPosts(ctx context.Context, id string) ([]models.RawPost, error) {
	return nil, nil
}

type stubOrders struct{}

func (stubOrders) Fetch(ctx context.Context, searchTerm string) ([]models.RawOrderListing, error) {
	return []models.RawOrderListing{{Title: "a", OrdersText: "600 sold"}}, nil
}

type stubVision struct{}

func (stubVision) Describe(ctx context.Context, image []byte, mimeType string) (*models.ProductDescription, error) {
	return &models.ProductDescription{
		SearchTerm:       "led dog collar",
		SocialSearchTerm: "led collar",
		Microniche:       "LED Pet Accessories",
	}, nil
}

type captureArchiver struct {
	mu      sync.Mutex
	reports []models.AnalysisReport
}

func (a *captureArchiver) Enqueue(report models.AnalysisReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports = append(a.reports, report)
}

func (a *captureArchiver) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reports)
}

func testServer(t *testing.T) (*Server, *captureArchiver) {
	t.Helper()
	cfg := &config.Config{
		Trendflow: config.TrendflowConfig{Name: "TrendFlow", Version: "test"},
		Server:    config.ServerConfig{Addr: ":0"},
		Fetch: config.FetchConfig{
			PageSize:   30,
			MaxPages:   2,
			MaxRecords: 100,
			PageDelay:  0,
		},
		Engagement: config.EngagementConfig{TopPosts: 5},
	}
	analyzer := pipeline.NewAnalyzer(cfg, stubShop{}, stubSocial{}, stubOrders{}, stubVision{})
	archiver := &captureArchiver{}
	return NewServer(cfg, analyzer, archiver), archiver
}

func TestLiveness(t *testing.T) {
	srv, _ := testServer(t)
	router, err := srv.buildRouter()
	if err != nil {
		t.Fatalf("buildRouter failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["service"] != "TrendFlow" {
		t.Errorf("unexpected service: %s", body["service"])
	}
}

func TestAnalyzeProduct(t *testing.T) {
	srv, archiver := testServer(t)
	router, err := srv.buildRouter()
	if err != nil {
		t.Fatalf("buildRouter failed: %v", err)
	}

	payload := `{"searchTerm":"led dog collar","tiktokSearchTerm":"led collar"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-product", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", rec.Code, rec.Body.String())
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.ReportID == "" {
		t.Errorf("report ID missing")
	}
	if report.Metrics.ResaleValue == nil {
		t.Errorf("resale section missing")
	}
	if report.Metrics.OrderVolume == nil || report.Metrics.OrderVolume.VolumeLevel != models.VolumeMedium {
		t.Errorf("unexpected order volume: %+v", report.Metrics.OrderVolume)
	}
	if archiver.count() != 1 {
		t.Errorf("report not archived")
	}
}

func TestAnalyzeProductMissingSearchTerm(t *testing.T) {
	srv, _ := testServer(t)
	router, _ := srv.buildRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-product", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}
}

func TestUpload(t *testing.T) {
	srv, archiver := testServer(t)
	router, _ := srv.buildRouter()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "product.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", rec.Code, rec.Body.String())
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.Description != "led dog collar" {
		t.Errorf("unexpected description: %s", report.Description)
	}
	if archiver.count() != 1 {
		t.Errorf("report not archived")
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv, _ := testServer(t)
	router, _ := srv.buildRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}
}

func TestOrderVolumeEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router, _ := srv.buildRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order-volume?searchTerm=collar", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body struct {
		OrderVolume *models.OrderVolume `json:"orderVolume"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.OrderVolume == nil || body.OrderVolume.Metrics.TotalOrders != 600 {
		t.Errorf("unexpected order volume: %+v", body.OrderVolume)
	}
}

func TestOrderVolumeRequiresSearchTerm(t *testing.T) {
	srv, _ := testServer(t)
	router, _ := srv.buildRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order-volume", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}
}

func TestAnalyzeWS(t *testing.T) {
	srv, _ := testServer(t)
	router, _ := srv.buildRouter()

	ts := httptest.NewServer(router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/analyze/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"searchTerm": "led dog collar"}); err != nil {
		t.Fatalf("failed to send request: %v", err)
	}

	sawProgress := false
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("websocket read failed: %v", err)
		}
		switch msg.Type {
		case "progress":
			sawProgress = true
		case "report":
			if msg.Report == nil || msg.Report.ReportID == "" {
				t.Fatalf("report message missing payload")
			}
			if !sawProgress {
				t.Errorf("expected progress events before report")
			}
			return
		case "error":
			t.Fatalf("unexpected error message: %s", msg.Error)
		}
	}
}
