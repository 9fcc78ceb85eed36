//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    int found;
    int finished;
    int terminated;
    int policy;
    char *bundleID;
    char *name;
} IceApp;

static char *ice_copy_nsstring(NSString *s) {
    if (s == nil) return NULL;
    const char *utf8 = [s UTF8String];
    return utf8 ? strdup(utf8) : NULL;
}

// Fills out for pid. found is 0 for processes that are not applications.
static void ice_app_info(int pid, IceApp *out) {
    @autoreleasepool {
        NSRunningApplication *app = [NSRunningApplication runningApplicationWithProcessIdentifier:(pid_t)pid];
        if (app == nil) {
            out->found = 0;
            return;
        }
        out->found = 1;
        out->finished = app.finishedLaunching ? 1 : 0;
        out->terminated = app.terminated ? 1 : 0;
        out->policy = (int)app.activationPolicy;
        out->bundleID = ice_copy_nsstring(app.bundleIdentifier);
        out->name = ice_copy_nsstring(app.localizedName);
    }
}

static void ice_free_app(IceApp *a) {
    free(a->bundleID);
    free(a->name);
}
*/
import "C"
import (
	"fmt"
	"os"

	"github.com/mj1618/icepid/internal/model"
	"golang.org/x/sys/unix"
)

// Workspace implements platform.AppSource. It enumerates processes with
// sysctl and asks AppKit about each one, since the NSWorkspace application
// list only updates on a running main loop.
type Workspace struct {
	self int
}

// NewWorkspace creates an application source.
func NewWorkspace() *Workspace {
	return &Workspace{self: os.Getpid()}
}

// RunningApps returns the running applications in ascending PID order.
func (w *Workspace) RunningApps() ([]model.AppInfo, error) {
	procs, err := unix.SysctlKinfoProcSlice("kern.proc.all")
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	apps := make([]model.AppInfo, 0, 64)
	for i := range procs {
		pid := int(procs[i].Proc.P_pid)
		if pid <= 0 || pid == w.self {
			continue
		}
		info, ok := appInfo(pid)
		if !ok {
			continue
		}
		apps = append(apps, info)
	}
	return apps, nil
}

func appInfo(pid int) (model.AppInfo, bool) {
	var c C.IceApp
	C.ice_app_info(C.int(pid), &c)
	if c.found == 0 {
		return model.AppInfo{}, false
	}
	defer C.ice_free_app(&c)

	return model.AppInfo{
		PID:               pid,
		BundleID:          C.GoString(c.bundleID),
		Name:              C.GoString(c.name),
		FinishedLaunching: c.finished != 0,
		Terminated:        c.terminated != 0,
		Policy:            activationPolicy(int(c.policy)),
	}, true
}

// activationPolicy maps NSApplicationActivationPolicy values.
func activationPolicy(p int) model.ActivationPolicy {
	switch p {
	case 0:
		return model.PolicyRegular
	case 1:
		return model.PolicyAccessory
	default:
		return model.PolicyProhibited
	}
}
