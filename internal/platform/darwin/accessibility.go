//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>

// Returns the app's extras menu bar with a +1 retain count, or NULL.
static void *ice_extras_bar(int pid, float timeout) {
    AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
    if (app == NULL) return NULL;
    AXUIElementSetMessagingTimeout(app, timeout);
    CFTypeRef bar = NULL;
    AXError err = AXUIElementCopyAttributeValue(app, CFSTR("AXExtrasMenuBar"), &bar);
    CFRelease(app);
    if (err != kAXErrorSuccess || bar == NULL) return NULL;
    if (CFGetTypeID(bar) != AXUIElementGetTypeID()) {
        CFRelease(bar);
        return NULL;
    }
    AXUIElementSetMessagingTimeout((AXUIElementRef)bar, timeout);
    return (void *)bar;
}

// Copies the children of el. Each returned element carries a +1 retain.
static int ice_children(void *el, float timeout, void ***out, int *count) {
    *out = NULL;
    *count = 0;
    CFArrayRef children = NULL;
    AXError err = AXUIElementCopyAttributeValue((AXUIElementRef)el, kAXChildrenAttribute, (CFTypeRef *)&children);
    if (err != kAXErrorSuccess || children == NULL) return -1;
    if (CFGetTypeID(children) != CFArrayGetTypeID()) {
        CFRelease(children);
        return -1;
    }
    CFIndex n = CFArrayGetCount(children);
    void **els = calloc(n > 0 ? n : 1, sizeof(void *));
    int k = 0;
    for (CFIndex i = 0; i < n; i++) {
        CFTypeRef child = CFArrayGetValueAtIndex(children, i);
        if (child == NULL || CFGetTypeID(child) != AXUIElementGetTypeID()) continue;
        CFRetain(child);
        AXUIElementSetMessagingTimeout((AXUIElementRef)child, timeout);
        els[k++] = (void *)child;
    }
    CFRelease(children);
    *out = els;
    *count = k;
    return 0;
}

// 1 enabled, 0 disabled, -1 unreadable.
static int ice_is_enabled(void *el) {
    CFTypeRef v = NULL;
    AXError err = AXUIElementCopyAttributeValue((AXUIElementRef)el, kAXEnabledAttribute, &v);
    if (err != kAXErrorSuccess || v == NULL) return -1;
    int rc = -1;
    if (CFGetTypeID(v) == CFBooleanGetTypeID()) {
        rc = CFBooleanGetValue((CFBooleanRef)v) ? 1 : 0;
    }
    CFRelease(v);
    return rc;
}

static int ice_frame(void *el, double *x, double *y, double *w, double *h) {
    CFTypeRef pos = NULL, size = NULL;
    if (AXUIElementCopyAttributeValue((AXUIElementRef)el, kAXPositionAttribute, &pos) != kAXErrorSuccess || pos == NULL) {
        return -1;
    }
    if (AXUIElementCopyAttributeValue((AXUIElementRef)el, kAXSizeAttribute, &size) != kAXErrorSuccess || size == NULL) {
        CFRelease(pos);
        return -1;
    }
    CGPoint p;
    CGSize s;
    int ok = AXValueGetValue((AXValueRef)pos, kAXValueCGPointType, &p) &&
             AXValueGetValue((AXValueRef)size, kAXValueCGSizeType, &s);
    CFRelease(pos);
    CFRelease(size);
    if (!ok) return -1;
    *x = p.x;
    *y = p.y;
    *w = s.width;
    *h = s.height;
    return 0;
}

static void ice_release(void *ref) {
    if (ref != NULL) CFRelease((CFTypeRef)ref);
}
*/
import "C"
import (
	"runtime"
	"time"
	"unsafe"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
)

// axElement owns one retain on an AXUIElementRef.
type axElement struct {
	ref unsafe.Pointer
	pid int
}

func (e *axElement) PID() int { return e.pid }

func wrapElement(ref unsafe.Pointer, pid int) *axElement {
	el := &axElement{ref: ref, pid: pid}
	runtime.SetFinalizer(el, func(e *axElement) { C.ice_release(e.ref) })
	return el
}

// AXClient implements platform.Accessibility. Every element it hands out
// carries the messaging timeout, so a hung app blocks a call for at most
// that long.
type AXClient struct {
	timeout C.float
}

// NewAXClient creates an accessibility client.
func NewAXClient(timeout time.Duration) *AXClient {
	return &AXClient{timeout: C.float(timeout.Seconds())}
}

func (a *AXClient) MenuExtrasBar(pid int) (platform.Element, bool) {
	ref := C.ice_extras_bar(C.int(pid), a.timeout)
	if ref == nil {
		return nil, false
	}
	return wrapElement(ref, pid), true
}

func (a *AXClient) Children(el platform.Element) []platform.Element {
	parent, ok := el.(*axElement)
	if !ok {
		return nil
	}
	var cEls *unsafe.Pointer
	var cCount C.int
	rc := C.ice_children(parent.ref, a.timeout, &cEls, &cCount)
	runtime.KeepAlive(parent)
	if rc != 0 {
		return nil
	}
	defer C.free(unsafe.Pointer(cEls))

	refs := unsafe.Slice(cEls, int(cCount))
	children := make([]platform.Element, 0, len(refs))
	for _, ref := range refs {
		children = append(children, wrapElement(ref, parent.pid))
	}
	return children
}

// IsEnabled reports false only when the element says so. An unreadable
// value counts as enabled.
func (a *AXClient) IsEnabled(el platform.Element) bool {
	e, ok := el.(*axElement)
	if !ok {
		return true
	}
	rc := C.ice_is_enabled(e.ref)
	runtime.KeepAlive(e)
	return rc != 0
}

func (a *AXClient) Frame(el platform.Element) (model.Rect, bool) {
	e, ok := el.(*axElement)
	if !ok {
		return model.Rect{}, false
	}
	var x, y, w, h C.double
	rc := C.ice_frame(e.ref, &x, &y, &w, &h)
	runtime.KeepAlive(e)
	if rc != 0 {
		return model.Rect{}, false
	}
	return model.Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}, true
}
