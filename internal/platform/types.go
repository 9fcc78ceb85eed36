package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/icepid/internal/model"
)

// ParseRect parses an "x,y,w,h" string into a Rect.
func ParseRect(s string) (model.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return model.Rect{}, fmt.Errorf("invalid bounds %q: expected x,y,w,h", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Rect{}, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] < 0 || vals[3] < 0 {
		return model.Rect{}, fmt.Errorf("invalid bounds %q: negative size", s)
	}
	return model.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// FindWindow returns the menu bar item window with the given ID.
func FindWindow(lister WindowLister, windowID uint32) (model.WindowRef, error) {
	windows, err := lister.MenuBarItemWindows()
	if err != nil {
		return model.WindowRef{}, fmt.Errorf("list menu bar windows: %w", err)
	}
	for _, w := range windows {
		if w.ID == windowID {
			return w, nil
		}
	}
	return model.WindowRef{}, fmt.Errorf("menu bar item %d: %w", windowID, ErrWindowNotFound)
}
