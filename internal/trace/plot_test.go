package trace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteConfidencePlot(t *testing.T) {
	var rows []Evaluation
	for i := 0; i < 20; i++ {
		at := t0.Add(time.Duration(i) * 200 * time.Millisecond)
		rows = append(rows,
			Evaluation{SessionID: "a", Seq: i + 1, At: at, TargetID: 0, Correlation: float64(i) / 20},
			Evaluation{SessionID: "a", Seq: i + 1, At: at, TargetID: 1, Correlation: -float64(i) / 40},
		)
	}

	for _, name := range []string{"confidence.png", "confidence.svg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteConfidencePlot(path, rows, 0.75, 0.85); err != nil {
				t.Fatalf("WriteConfidencePlot() error = %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("plot not written: %v", err)
			}
			if info.Size() == 0 {
				t.Error("expected a non-empty plot file")
			}
		})
	}
}

func TestWriteConfidencePlot_NoData(t *testing.T) {
	err := WriteConfidencePlot(filepath.Join(t.TempDir(), "empty.png"), nil, 0.75, 0.85)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}
