package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/OpenKinder/kinder/internal/canteen/model"
)

// ExportMetadata describes a stored plan export.
type ExportMetadata struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportService renders purchase plans to CSV and stores them via the
// configured driver.
type ExportService struct {
	Driver StorageDriver
}

func NewExportService(driver StorageDriver) *ExportService {
	return &ExportService{Driver: driver}
}

// ExportPlan renders the plan and saves it; exporting the same plan again
// overwrites the previous file under the same key.
func (s *ExportService) ExportPlan(ctx context.Context, plan *model.PurchasePlan) (*ExportMetadata, error) {
	content, err := RenderPlanCSV(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to render plan: %w", err)
	}

	key := fmt.Sprintf("purchase-plan-%s.csv", plan.ID)
	if err := s.Driver.Save(ctx, key, bytes.NewReader(content), "text/csv"); err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	url, err := s.Driver.GenerateURL(ctx, key, 0)
	if err != nil {
		if delErr := s.Driver.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to cleanup orphaned export", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	slog.InfoContext(ctx, "Purchase plan exported", "plan_id", plan.ID, "key", key)
	return &ExportMetadata{Key: key, URL: url}, nil
}

// Download retrieves a stored export and its MIME type
func (s *ExportService) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.Driver.Get(ctx, key)
}

// RenderPlanCSV flattens a plan's supplier groups into one CSV table.
// One row per ingredient per day, plus a TOTAL row per ingredient; rows are
// emitted in the aggregator's deterministic order.
func RenderPlanCSV(plan *model.PurchasePlan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"category", "weekly_batch", "ingredient", "unit", "date", "grams", "display_amount"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, group := range plan.Groups {
		for _, line := range group.Lines {
			days := make([]string, 0, len(line.PerDayGrams))
			for day := range line.PerDayGrams {
				days = append(days, day)
			}
			sort.Strings(days)

			for _, day := range days {
				row := []string{
					group.CategoryName,
					strconv.FormatBool(group.WeeklyBatch),
					line.IngredientName,
					string(line.Unit),
					day,
					formatAmount(line.PerDayGrams[day]),
					"",
				}
				if err := w.Write(row); err != nil {
					return nil, err
				}
			}

			total := []string{
				group.CategoryName,
				strconv.FormatBool(group.WeeklyBatch),
				line.IngredientName,
				string(line.Unit),
				"TOTAL",
				formatAmount(line.TotalGrams),
				formatAmount(line.DisplayAmount),
			}
			if err := w.Write(total); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
