package hotkey

import (
	"fmt"
	"strings"
)

// splitAccel breaks an accelerator like "Ctrl+Shift+Space" into lowercase
// modifier names and the final key name. The last segment is always the key.
func splitAccel(accel string) (mods []string, key string, err error) {
	parts := strings.Split(accel, "+")
	if len(parts) == 0 || strings.TrimSpace(parts[len(parts)-1]) == "" {
		return nil, "", fmt.Errorf("invalid accelerator %q", accel)
	}
	for _, p := range parts[:len(parts)-1] {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, "", fmt.Errorf("invalid accelerator %q", accel)
		}
		mods = append(mods, p)
	}
	key = strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	return mods, key, nil
}
