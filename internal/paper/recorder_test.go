package paper

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

func TestJSONLRecorder(t *testing.T) {
	tmp := t.TempDir()
	path := tmp + "/ledger/positions.jsonl"

	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}
	state := PositionState{Date: day(7), Pair: "XLE/XLB", Position: signal.Short, Notional: 2500, SharesA: 10, SharesB: 12}
	ledger := NewLedger(1, recorder)
	if err := ledger.Append(state); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one line in recorder output")
	}
	var decoded PositionState
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if decoded.Pair != state.Pair || decoded.Position != signal.Short || !decoded.Date.Equal(state.Date) {
		t.Fatalf("unexpected decoded state %+v", decoded)
	}
}
