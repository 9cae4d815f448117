package errors

import (
	"strings"
	"testing"
)

func TestValidateChannelName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "xy0", false},
		{"with dash", "q0-drive", false},
		{"with dot", "q0.ro", false},
		{"underscore start", "_aux", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 65), true},
		{"digit start", "0q", true},
		{"space", "q 0", true},
		{"slash", "q/0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChannelName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChannelName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidChannel) {
				t.Errorf("ValidateChannelName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidChannel)
			}
		})
	}
}

func TestValidateShapeName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"gauss", false},
		{"drag_hann", false},
		{"", true},
		{"hann", true},
		{"Rect", true},
		{"9x", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateShapeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateShapeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "schedules/rabi.yaml", false},
		{"absolute", "/tmp/rabi.yaml", false},
		{"empty", "", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
