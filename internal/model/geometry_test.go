package model

import (
	"math"
	"testing"
)

func TestRectCenter(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 30, Height: 24}
	if c := r.Center(); c != (Point{X: 25, Y: 32}) {
		t.Errorf("Center = %+v, want {25 32}", c)
	}
}

func TestCenterDistance(t *testing.T) {
	tests := []struct {
		a, b Rect
		want float64
	}{
		{Rect{0, 0, 10, 10}, Rect{0, 0, 10, 10}, 0},
		{Rect{0, 0, 10, 10}, Rect{3, 4, 10, 10}, 5},
		{Rect{0, 0, 10, 10}, Rect{-6, 0, 10, 10}, 6},
		// Different sizes, same center.
		{Rect{0, 0, 10, 10}, Rect{-5, -5, 20, 20}, 0},
	}
	for _, tt := range tests {
		if got := CenterDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CenterDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 20, Y: 5, Width: 10, Height: 10}
	want := Rect{X: 0, Y: 0, Width: 30, Height: 15}
	if got := a.Union(b); got != want {
		t.Errorf("Union = %v, want %v", got, want)
	}
	if got := (Rect{}).Union(b); got != b {
		t.Errorf("empty.Union(b) = %v, want %v", got, b)
	}
	if got := a.Union(Rect{}); got != a {
		t.Errorf("a.Union(empty) = %v, want %v", got, a)
	}
}

func TestRectIsEmpty(t *testing.T) {
	if !(Rect{Width: 0, Height: 5}).IsEmpty() {
		t.Error("zero width should be empty")
	}
	if (Rect{Width: 1, Height: 1}).IsEmpty() {
		t.Error("1x1 should not be empty")
	}
}

func TestActivationPolicyString(t *testing.T) {
	tests := map[ActivationPolicy]string{
		PolicyRegular:        "regular",
		PolicyAccessory:      "accessory",
		PolicyProhibited:     "prohibited",
		ActivationPolicy(42): "unknown",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(p), got, want)
		}
	}
}

func TestAppInfo(t *testing.T) {
	cc := AppInfo{PID: 1, BundleID: "com.apple.controlcenter", Name: "Control Center"}
	if !cc.IsStatusBarHost() {
		t.Error("Control Center should be a status bar host")
	}
	app := AppInfo{PID: 2, BundleID: "com.example.app"}
	if app.IsStatusBarHost() {
		t.Error("ordinary app should not be a status bar host")
	}
	if got := app.DisplayName(); got != "com.example.app" {
		t.Errorf("DisplayName = %q, want bundle id fallback", got)
	}
}
