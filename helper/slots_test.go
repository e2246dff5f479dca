package helper

import (
	"reflect"
	"testing"
)

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name           string
		opens, closes  string
		granularityMin int
		durationMin    int
		want           []string
	}{
		{
			name:  "dinner service half hour grid",
			opens: "12:00", closes: "22:00",
			granularityMin: 30, durationMin: 90,
			want: []string{
				"12:00", "12:30", "13:00", "13:30", "14:00", "14:30",
				"15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
				"18:00", "18:30", "19:00", "19:30", "20:00", "20:30",
			},
		},
		{
			name:  "single slot fits exactly",
			opens: "18:00", closes: "19:30",
			granularityMin: 30, durationMin: 90,
			want: []string{"18:00"},
		},
		{
			name:  "window shorter than duration",
			opens: "18:00", closes: "19:00",
			granularityMin: 15, durationMin: 90,
			want: nil,
		},
		{
			name:  "quarter hour grid",
			opens: "09:00", closes: "10:00",
			granularityMin: 15, durationMin: 30,
			want: []string{"09:00", "09:15", "09:30"},
		},
		{
			name:  "zero granularity",
			opens: "12:00", closes: "22:00",
			granularityMin: 0, durationMin: 90,
			want: nil,
		},
		{
			name:  "unparseable opening time",
			opens: "noon", closes: "22:00",
			granularityMin: 30, durationMin: 90,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSlots(tt.opens, tt.closes, tt.granularityMin, tt.durationMin)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GenerateSlots(%q, %q, %d, %d) = %v, want %v",
					tt.opens, tt.closes, tt.granularityMin, tt.durationMin, got, tt.want)
			}
		})
	}
}

func TestGenerateSlotsLastSlotEndsAtClose(t *testing.T) {
	slots := GenerateSlots("12:00", "22:00", 30, 90)
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	last := slots[len(slots)-1]
	if last != "20:30" {
		t.Errorf("last slot = %q, want %q", last, "20:30")
	}
}
