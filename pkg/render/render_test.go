package render

import "testing"

func TestParseTimeUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeUnit
		wantErr bool
	}{
		{"", Nanoseconds, false},
		{"ns", Nanoseconds, false},
		{"US", Microseconds, false},
		{"µs", Microseconds, false},
		{"ms", Milliseconds, false},
		{"s", Seconds, false},
		{"min", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTimeUnit(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTimeUnit(%q) = %q, %v; want %q, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestTimeUnitFormat(t *testing.T) {
	tests := []struct {
		unit TimeUnit
		t    float64
		want string
	}{
		{Nanoseconds, 80.3e-9, "80.3 ns"},
		{Microseconds, 1.5e-6, "1.5 us"},
		{Seconds, 2, "2 s"},
		{"", 1e-9, "1 ns"},
	}
	for _, tt := range tests {
		if got := tt.unit.Format(tt.t); got != tt.want {
			t.Errorf("%q.Format(%g) = %q, want %q", tt.unit, tt.t, got, tt.want)
		}
	}
}
