package hotkey

import (
	"reflect"
	"testing"
)

func TestSplitAccel(t *testing.T) {
	tests := []struct {
		accel string
		mods  []string
		key   string
	}{
		{"Ctrl+Space", []string{"ctrl"}, "space"},
		{"Ctrl+Shift+R", []string{"ctrl", "shift"}, "r"},
		{"Alt+F4", []string{"alt"}, "f4"},
		{"space", nil, "space"},
	}

	for _, tt := range tests {
		mods, key, err := splitAccel(tt.accel)
		if err != nil {
			t.Errorf("splitAccel(%q): %v", tt.accel, err)
			continue
		}
		if !reflect.DeepEqual(mods, tt.mods) || key != tt.key {
			t.Errorf("splitAccel(%q) = %v, %q; want %v, %q", tt.accel, mods, key, tt.mods, tt.key)
		}
	}
}

func TestSplitAccelInvalid(t *testing.T) {
	for _, accel := range []string{"", "Ctrl+", "+Space"} {
		if _, _, err := splitAccel(accel); err == nil {
			t.Errorf("splitAccel(%q) should fail", accel)
		}
	}
}
