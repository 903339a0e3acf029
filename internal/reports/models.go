package reports

import "fmt"

// Export formats.
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

// ParseFormat normalizes the format query parameter. An empty value defaults
// to PDF.
func ParseFormat(raw string) (string, error) {
	switch raw {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", raw)
	}
}

var weekdayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func weekdayName(dayIndex int) string {
	if dayIndex < 0 || dayIndex >= len(weekdayNames) {
		return fmt.Sprintf("Day %d", dayIndex+1)
	}
	return weekdayNames[dayIndex]
}
