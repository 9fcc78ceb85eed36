package platform

import (
	"errors"
	"testing"

	"github.com/mj1618/icepid/internal/model"
)

func TestParseRect_Valid(t *testing.T) {
	r, err := ParseRect("10,20,30.5,24")
	if err != nil {
		t.Fatal(err)
	}
	want := model.Rect{X: 10, Y: 20, Width: 30.5, Height: 24}
	if r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}
}

func TestParseRect_WithSpaces(t *testing.T) {
	r, err := ParseRect("10, 20, 300, 400")
	if err != nil {
		t.Fatal(err)
	}
	if r.X != 10 || r.Y != 20 || r.Width != 300 || r.Height != 400 {
		t.Errorf("got %+v, want {10 20 300 400}", r)
	}
}

func TestParseRect_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10,20,300",
		"10,20,300,400,500",
		"a,b,c,d",
		"10,20,abc,400",
		"10,20,-1,400",
	}
	for _, s := range tests {
		if _, err := ParseRect(s); err == nil {
			t.Errorf("ParseRect(%q) should fail", s)
		}
	}
}

type staticLister struct {
	windows []model.WindowRef
	err     error
}

func (l staticLister) MenuBarItemWindows() ([]model.WindowRef, error) {
	return l.windows, l.err
}

func (l staticLister) WindowBounds(id uint32) (model.Rect, error) {
	for _, w := range l.windows {
		if w.ID == id {
			return w.Bounds, nil
		}
	}
	return model.Rect{}, ErrWindowNotFound
}

func TestFindWindow(t *testing.T) {
	lister := staticLister{windows: []model.WindowRef{
		{ID: 1, OwnerPID: 10},
		{ID: 2, OwnerPID: 20},
	}}

	w, err := FindWindow(lister, 2)
	if err != nil {
		t.Fatal(err)
	}
	if w.OwnerPID != 20 {
		t.Errorf("OwnerPID = %d, want 20", w.OwnerPID)
	}

	_, err = FindWindow(lister, 3)
	if !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("expected ErrWindowNotFound, got %v", err)
	}
}

func TestFindWindow_ListError(t *testing.T) {
	lister := staticLister{err: errors.New("boom")}
	if _, err := FindWindow(lister, 1); err == nil {
		t.Fatal("expected error")
	}
}
