package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/mealforge/mealforge/internal/planner"
	"github.com/mealforge/mealforge/internal/storage"
)

// ErrNoWeek means there is no active week plan to export.
var ErrNoWeek = errors.New("no active week plan")

// Generator renders the active week plan as PDF or CSV.
type Generator struct {
	weekPlans storage.WeekPlansStorage
	catalog   storage.CatalogStorage
}

// NewGenerator creates a report generator.
func NewGenerator(weekPlans storage.WeekPlansStorage, catalog storage.CatalogStorage) *Generator {
	return &Generator{
		weekPlans: weekPlans,
		catalog:   catalog,
	}
}

// exportDay is a flattened day ready for rendering.
type exportDay struct {
	DayIndex int
	Totals   planner.Vector
	Rows     []exportRow
}

// exportRow is one chosen combo item of one slot.
type exportRow struct {
	SlotName string
	SlotType string
	ItemName string
	Quantity float64
	Macros   planner.Vector
}

// Generate renders the owner's active week in the requested format.
func (g *Generator) Generate(ctx context.Context, ownerUserID string, format string) ([]byte, error) {
	days, err := g.loadWeek(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		return g.generatePDF(days)
	case FormatCSV:
		return g.generateCSV(days)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// loadWeek fetches the active week and flattens every chosen combo into
// per-item rows with resolved names and scaled macros.
func (g *Generator) loadWeek(ctx context.Context, ownerUserID string) ([]exportDay, error) {
	_, dayRows, slotRows, ok, err := g.weekPlans.GetWeek(ctx, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch week plan: %w", err)
	}
	if !ok {
		return nil, ErrNoWeek
	}

	slotsByDay := make(map[uuid.UUID][]storage.PlanSlot, len(dayRows))
	for _, slot := range slotRows {
		slotsByDay[slot.DayPlanID] = append(slotsByDay[slot.DayPlanID], slot)
	}

	cache := make(map[uuid.UUID]*storage.CatalogItem)
	days := make([]exportDay, 0, len(dayRows))
	for _, day := range dayRows {
		out := exportDay{
			DayIndex: day.DayIndex,
			Totals: planner.Vector{
				Calories: day.Calories,
				ProteinG: day.ProteinG,
				CarbsG:   day.CarbsG,
				FatG:     day.FatG,
			},
		}
		for _, slot := range slotsByDay[day.ID] {
			var chosen planner.Combo
			if err := json.Unmarshal(slot.Chosen, &chosen); err != nil {
				return nil, fmt.Errorf("failed to decode chosen combo: %w", err)
			}
			for _, item := range chosen.Items {
				name, macros := g.resolveItem(ctx, ownerUserID, cache, item.ItemID)
				out.Rows = append(out.Rows, exportRow{
					SlotName: slot.Name,
					SlotType: slot.SlotType,
					ItemName: name,
					Quantity: item.Quantity,
					Macros:   macros.Scale(item.Quantity).Round(),
				})
			}
		}
		days = append(days, out)
	}
	return days, nil
}

// resolveItem looks up the item's current name and per-portion macros,
// memoizing lookups across the week. Items deleted from the catalog since
// assembly keep a placeholder name and zero macros.
func (g *Generator) resolveItem(ctx context.Context, ownerUserID string, cache map[uuid.UUID]*storage.CatalogItem, id uuid.UUID) (string, planner.Vector) {
	record, hit := cache[id]
	if !hit {
		found, err := g.catalog.GetItem(ctx, ownerUserID, id)
		if err == nil {
			record = &found
		}
		cache[id] = record
	}
	if record == nil {
		return "(deleted item)", planner.Vector{}
	}
	return record.Name, planner.ItemVector(*record)
}

func (g *Generator) generateCSV(days []exportDay) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"day", "weekday", "slot", "slot_type", "item", "quantity", "calories", "protein_g", "carbs_g", "fat_g"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, day := range days {
		for _, row := range day.Rows {
			record := []string{
				strconv.Itoa(day.DayIndex),
				weekdayName(day.DayIndex),
				row.SlotName,
				row.SlotType,
				row.ItemName,
				formatQuantity(row.Quantity),
				formatMacro(row.Macros.Calories),
				formatMacro(row.Macros.ProteinG),
				formatMacro(row.Macros.CarbsG),
				formatMacro(row.Macros.FatG),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		totals := []string{
			strconv.Itoa(day.DayIndex),
			weekdayName(day.DayIndex),
			"", "", "day total", "",
			formatMacro(day.Totals.Calories),
			formatMacro(day.Totals.ProteinG),
			formatMacro(day.Totals.CarbsG),
			formatMacro(day.Totals.FatG),
		}
		if err := w.Write(totals); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) generatePDF(days []exportDay) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Weekly Meal Plan")
	pdf.Ln(12)

	for _, day := range days {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, weekdayName(day.DayIndex))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(35, 6, "Slot", "1", 0, "C", false, 0, "")
		pdf.CellFormat(65, 6, "Item", "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 6, "Qty", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Kcal", "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, "Protein", "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, "Carbs", "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, "Fat", "1", 1, "C", false, 0, "")

		pdf.SetFont("Arial", "", 8)
		for _, row := range day.Rows {
			pdf.CellFormat(35, 6, row.SlotName, "1", 0, "L", false, 0, "")
			pdf.CellFormat(65, 6, row.ItemName, "1", 0, "L", false, 0, "")
			pdf.CellFormat(15, 6, formatQuantity(row.Quantity), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, formatMacro(row.Macros.Calories), "1", 0, "C", false, 0, "")
			pdf.CellFormat(18, 6, formatMacro(row.Macros.ProteinG), "1", 0, "C", false, 0, "")
			pdf.CellFormat(18, 6, formatMacro(row.Macros.CarbsG), "1", 0, "C", false, 0, "")
			pdf.CellFormat(18, 6, formatMacro(row.Macros.FatG), "1", 1, "C", false, 0, "")
		}

		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(115, 6, "Day total", "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, formatMacro(day.Totals.Calories), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, formatMacro(day.Totals.ProteinG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, formatMacro(day.Totals.CarbsG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, formatMacro(day.Totals.FatG), "1", 1, "C", false, 0, "")
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatMacro(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
