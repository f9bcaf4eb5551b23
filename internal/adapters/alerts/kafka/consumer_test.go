package kafka

import (
	"testing"

	"paws-and-places/internal/ports/alerts"
)

func TestFormatSMS(t *testing.T) {
	e := alerts.Emergency{
		ReportID:        "r-1",
		Species:         "dog",
		Count:           3,
		Address:         "Av. Rivadavia 100",
		HealthCondition: "hit by a car",
		ReporterName:    "Ana",
		ReporterContact: "+5491100000000",
	}

	got := FormatSMS(e)
	want := "EMERGENCY: 3 dog(s) needs urgent help at Av. Rivadavia 100. Condition: hit by a car. Contact: Ana +5491100000000"
	if got != want {
		t.Fatalf("FormatSMS:\n got  %q\n want %q", got, want)
	}
}

func TestFormatSMS_NoPhone(t *testing.T) {
	e := alerts.Emergency{
		Species:         "cat",
		Count:           1,
		Address:         "Parque Centenario",
		HealthCondition: "malnourished",
		ReporterName:    "Bruno",
	}

	got := FormatSMS(e)
	want := "EMERGENCY: 1 cat(s) needs urgent help at Parque Centenario. Condition: malnourished. Contact: Bruno no phone provided"
	if got != want {
		t.Fatalf("FormatSMS:\n got  %q\n want %q", got, want)
	}
}
