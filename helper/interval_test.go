package helper

import "testing"

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{1140, 1230}, Interval{1140, 1230}, true},
		{"partial overlap", Interval{1140, 1230}, Interval{1200, 1290}, true},
		{"contained", Interval{1140, 1230}, Interval{1150, 1160}, true},
		{"touching end to start", Interval{1140, 1230}, Interval{1230, 1320}, false},
		{"touching start to end", Interval{1230, 1320}, Interval{1140, 1230}, false},
		{"disjoint", Interval{600, 690}, Interval{1140, 1230}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// overlap is symmetric
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:15", 555, false},
		{"19:00", 1140, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "09:05", "12:30", "20:45", "23:59"} {
		min, err := ParseClock(s)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", s, err)
		}
		if got := FormatClock(min); got != s {
			t.Errorf("FormatClock(ParseClock(%q)) = %q", s, got)
		}
	}
}

func TestOverlapsAny(t *testing.T) {
	set := []Interval{{720, 810}, {1140, 1230}}
	if !OverlapsAny(set, Interval{1170, 1260}) {
		t.Error("expected overlap with occupied evening interval")
	}
	if OverlapsAny(set, Interval{810, 900}) {
		t.Error("interval starting exactly at a previous end should be free")
	}
	if OverlapsAny(nil, Interval{0, 60}) {
		t.Error("empty set should never overlap")
	}
}
