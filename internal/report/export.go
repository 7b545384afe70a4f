package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"intentguard/internal/testrun"
	"intentguard/internal/util/jsonutil"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Export renders a run for download. JSON is the stored record verbatim;
// CSV is one row per utterance result. Returns the payload and its
// content type.
func Export(run *testrun.TestRun, format string) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		data, err := jsonutil.MarshalNoEscapeIndent(run, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	case FormatCSV:
		data, err := exportCSV(run)
		if err != nil {
			return nil, "", err
		}
		return data, "text/csv", nil
	default:
		return nil, "", fmt.Errorf("report: unsupported export format %q", format)
	}
}

var csvHeader = []string{
	"Utterance",
	"Expected Intent",
	"Recognized Intent",
	"Intent Match",
	"Confidence",
	"Expected Slots",
	"Recognized Slots",
	"Slots Match",
	"Overall Match",
}

func exportCSV(run *testrun.TestRun) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range run.Results {
		expected, err := json.Marshal(r.ExpectedSlots)
		if err != nil {
			return nil, err
		}
		recognized, err := json.Marshal(slotMap(r.Slots))
		if err != nil {
			return nil, err
		}
		row := []string{
			r.Utterance,
			r.ExpectedIntent,
			r.RecognizedIntent,
			yesNo(r.IntentMatch),
			fmt.Sprintf("%.2f", r.Confidence),
			string(expected),
			string(recognized),
			yesNo(r.SlotsMatch),
			yesNo(r.OverallMatch),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// slotMap flattens recognized slots to name -> resolved value, the same
// shape expectations are written in.
func slotMap(slots []testrun.Slot) map[string]string {
	m := make(map[string]string, len(slots))
	for _, s := range slots {
		m[s.Name] = s.ResolvedValue()
	}
	return m
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
