//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    uint32_t id;
    int pid;
    int layer;
    int onscreen;
    double x, y, width, height;
    char *title;
} IceWindow;

static int ice_dict_int(CFDictionaryRef d, CFStringRef key, int *out) {
    CFNumberRef n = CFDictionaryGetValue(d, key);
    if (n == NULL) return 0;
    return CFNumberGetValue(n, kCFNumberIntType, out) ? 1 : 0;
}

static char *ice_dict_string(CFDictionaryRef d, CFStringRef key) {
    CFStringRef s = CFDictionaryGetValue(d, key);
    if (s == NULL) return NULL;
    CFIndex len = CFStringGetMaximumSizeForEncoding(CFStringGetLength(s), kCFStringEncodingUTF8) + 1;
    char *buf = malloc(len);
    if (!CFStringGetCString(s, buf, len, kCFStringEncodingUTF8)) {
        free(buf);
        return NULL;
    }
    return buf;
}

static int ice_fill_window(CFDictionaryRef d, IceWindow *w) {
    int id = 0;
    if (!ice_dict_int(d, kCGWindowNumber, &id)) return 0;
    w->id = (uint32_t)id;
    ice_dict_int(d, kCGWindowOwnerPID, &w->pid);
    ice_dict_int(d, kCGWindowLayer, &w->layer);
    CFBooleanRef on = CFDictionaryGetValue(d, kCGWindowIsOnscreen);
    w->onscreen = on != NULL && CFBooleanGetValue(on);
    CGRect r = CGRectZero;
    CFDictionaryRef b = CFDictionaryGetValue(d, kCGWindowBounds);
    if (b == NULL || !CGRectMakeWithDictionaryRepresentation(b, &r)) return 0;
    w->x = r.origin.x;
    w->y = r.origin.y;
    w->width = r.size.width;
    w->height = r.size.height;
    w->title = ice_dict_string(d, kCGWindowName);
    return 1;
}

// Lists every window at the given layer, on screen or not.
static int ice_list_layer(int layer, IceWindow **out, int *count) {
    *out = NULL;
    *count = 0;
    CFArrayRef list = CGWindowListCopyWindowInfo(kCGWindowListOptionAll, kCGNullWindowID);
    if (list == NULL) return -1;
    CFIndex n = CFArrayGetCount(list);
    IceWindow *ws = calloc(n > 0 ? n : 1, sizeof(IceWindow));
    int k = 0;
    for (CFIndex i = 0; i < n; i++) {
        CFDictionaryRef d = CFArrayGetValueAtIndex(list, i);
        IceWindow w = {0};
        if (!ice_fill_window(d, &w)) continue;
        if (w.layer != layer) {
            free(w.title);
            continue;
        }
        ws[k++] = w;
    }
    CFRelease(list);
    *out = ws;
    *count = k;
    return 0;
}

static int ice_window_bounds(uint32_t id, double *x, double *y, double *w, double *h) {
    CFArrayRef list = CGWindowListCopyWindowInfo(kCGWindowListOptionIncludingWindow, (CGWindowID)id);
    if (list == NULL) return -1;
    int rc = -1;
    if (CFArrayGetCount(list) > 0) {
        IceWindow win = {0};
        if (ice_fill_window(CFArrayGetValueAtIndex(list, 0), &win) && win.id == id) {
            *x = win.x;
            *y = win.y;
            *w = win.width;
            *h = win.height;
            rc = 0;
        }
        free(win.title);
    }
    CFRelease(list);
    return rc;
}

static void ice_free_windows(IceWindow *ws, int count) {
    for (int i = 0; i < count; i++) free(ws[i].title);
    free(ws);
}

static int ice_status_layer() {
    return (int)CGWindowLevelForKey(kCGStatusWindowLevelKey);
}
*/
import "C"
import (
	"fmt"
	"slices"
	"unsafe"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
)

// WindowServer implements platform.WindowLister with CGWindowList.
type WindowServer struct {
	layer C.int
}

// NewWindowServer creates a window lister for menu bar item windows.
func NewWindowServer() *WindowServer {
	return &WindowServer{layer: C.ice_status_layer()}
}

// MenuBarItemWindows returns the status-level windows ordered left to right.
func (s *WindowServer) MenuBarItemWindows() ([]model.WindowRef, error) {
	var cWindows *C.IceWindow
	var cCount C.int
	if C.ice_list_layer(s.layer, &cWindows, &cCount) != 0 {
		return nil, fmt.Errorf("failed to enumerate windows")
	}
	defer C.ice_free_windows(cWindows, cCount)

	count := int(cCount)
	windows := make([]model.WindowRef, 0, count)
	if count == 0 {
		return windows, nil
	}
	for _, cw := range unsafe.Slice(cWindows, count) {
		windows = append(windows, model.WindowRef{
			ID: uint32(cw.id),
			Bounds: model.Rect{
				X:      float64(cw.x),
				Y:      float64(cw.y),
				Width:  float64(cw.width),
				Height: float64(cw.height),
			},
			OwnerPID: int(cw.pid),
			Title:    C.GoString(cw.title),
			OnScreen: cw.onscreen != 0,
		})
	}

	slices.SortStableFunc(windows, func(a, b model.WindowRef) int {
		switch {
		case a.Bounds.X < b.Bounds.X:
			return -1
		case a.Bounds.X > b.Bounds.X:
			return 1
		default:
			return 0
		}
	})
	return windows, nil
}

// WindowBounds returns the current frame of one window.
func (s *WindowServer) WindowBounds(id uint32) (model.Rect, error) {
	var x, y, w, h C.double
	if C.ice_window_bounds(C.uint32_t(id), &x, &y, &w, &h) != 0 {
		return model.Rect{}, fmt.Errorf("window %d: %w", id, platform.ErrWindowNotFound)
	}
	return model.Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}, nil
}
