package exports

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/canteen/model"
)

// MockDriver implements StorageDriver for testing
type MockDriver struct {
	SavedKey       string
	SavedBody      []byte
	SavedMime      string
	GenerateURLErr error
	DeleteCalled   bool
	DeleteKey      string
}

func (m *MockDriver) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	m.SavedKey = key
	m.SavedMime = contentType
	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.SavedBody = content
	return nil
}

func (m *MockDriver) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return io.NopCloser(bytes.NewReader(m.SavedBody)), m.SavedMime, nil
}

func (m *MockDriver) Delete(ctx context.Context, key string) error {
	m.DeleteCalled = true
	m.DeleteKey = key
	return nil
}

func (m *MockDriver) GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if m.GenerateURLErr != nil {
		return "", m.GenerateURLErr
	}
	return "/api/v1/exports/" + key, nil
}

func testPlan() *model.PurchasePlan {
	plan := &model.PurchasePlan{
		Status: model.PlanStatusDraft,
		Groups: []model.SupplierGroup{
			{
				CategoryName: "fresh",
				WeeklyBatch:  false,
				Lines: []model.PlanLine{
					{
						IngredientName: "egg",
						Unit:           model.UnitGram,
						TotalGrams:     600,
						DisplayAmount:  600,
						PerDayGrams:    map[string]float64{"2026-09-07": 300, "2026-09-08": 300},
					},
				},
			},
			{
				CategoryName: "staples",
				WeeklyBatch:  true,
				Lines: []model.PlanLine{
					{
						IngredientName: "rice",
						Unit:           model.UnitCatty,
						TotalGrams:     1000,
						DisplayAmount:  2,
						PerDayGrams:    map[string]float64{"2026-09-07": 500, "2026-09-08": 500},
					},
				},
			},
		},
	}
	plan.ID = uuid.New()
	return plan
}

func TestRenderPlanCSV(t *testing.T) {
	content, err := RenderPlanCSV(testPlan())
	if err != nil {
		t.Fatalf("RenderPlanCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	// Header + (2 day rows + 1 total row) per ingredient
	if len(lines) != 7 {
		t.Fatalf("expected 7 CSV lines, got %d: %v", len(lines), lines)
	}

	if lines[0] != "category,weekly_batch,ingredient,unit,date,grams,display_amount" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "fresh,false,egg,GRAM,2026-09-07,300," {
		t.Errorf("unexpected first day row: %s", lines[1])
	}
	if lines[3] != "fresh,false,egg,GRAM,TOTAL,600,600" {
		t.Errorf("unexpected total row: %s", lines[3])
	}
	if lines[6] != "staples,true,rice,CATTY,TOTAL,1000,2" {
		t.Errorf("unexpected rice total row: %s", lines[6])
	}
}

func TestExportPlan(t *testing.T) {
	mock := &MockDriver{}
	service := NewExportService(mock)
	plan := testPlan()

	metadata, err := service.ExportPlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("ExportPlan failed: %v", err)
	}

	expectedKey := "purchase-plan-" + plan.ID.String() + ".csv"
	if metadata.Key != expectedKey {
		t.Errorf("expected key %s, got %s", expectedKey, metadata.Key)
	}
	if metadata.URL != "/api/v1/exports/"+expectedKey {
		t.Errorf("unexpected URL: %s", metadata.URL)
	}
	if mock.SavedMime != "text/csv" {
		t.Errorf("expected text/csv, got %s", mock.SavedMime)
	}
	if len(mock.SavedBody) == 0 {
		t.Error("no content saved")
	}
}

func TestExportPlan_GenerateURLFailure(t *testing.T) {
	mock := &MockDriver{GenerateURLErr: io.ErrUnexpectedEOF}
	service := NewExportService(mock)

	_, err := service.ExportPlan(context.Background(), testPlan())
	if err == nil {
		t.Fatal("expected ExportPlan to fail when GenerateURL fails")
	}

	if !mock.DeleteCalled {
		t.Error("expected Delete to be called to cleanup orphaned export")
	}
	if mock.DeleteKey != mock.SavedKey {
		t.Errorf("expected Delete with key %s, got %s", mock.SavedKey, mock.DeleteKey)
	}
}

func TestDownload(t *testing.T) {
	mock := &MockDriver{SavedBody: []byte("csv content"), SavedMime: "text/csv"}
	service := NewExportService(mock)

	reader, contentType, err := service.Download(context.Background(), "some-key")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer reader.Close()

	if contentType != "text/csv" {
		t.Errorf("expected text/csv, got %s", contentType)
	}
	content, _ := io.ReadAll(reader)
	if !bytes.Equal(content, mock.SavedBody) {
		t.Error("downloaded content does not match")
	}
}
