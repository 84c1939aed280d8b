package store

import "testing"

func TestAvailableName_NoCollision(t *testing.T) {
	got := AvailableName("report.csv", map[string]bool{}, 1700000000)
	if got != "report.csv" {
		t.Errorf("got %q, want unchanged name", got)
	}
}

func TestAvailableName_CollisionAppendsTimestamp(t *testing.T) {
	taken := map[string]bool{"report.csv": true}
	got := AvailableName("report.csv", taken, 1700000000)
	want := "report_1700000000.csv"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAvailableName_NoExtension(t *testing.T) {
	taken := map[string]bool{"reports": true}
	got := AvailableName("reports", taken, 1700000000)
	if got != "reports_1700000000" {
		t.Errorf("got %q", got)
	}
}

func TestAvailableName_RetriesOnRepeatedCollision(t *testing.T) {
	taken := map[string]bool{
		"reports":            true,
		"reports_1700000000": true,
	}
	got := AvailableName("reports", taken, 1700000000)
	if got != "reports_1700000001" {
		t.Errorf("got %q, want reports_1700000001", got)
	}
}
