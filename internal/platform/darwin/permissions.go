//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation
#include <ApplicationServices/ApplicationServices.h>

static int is_trusted() {
    return AXIsProcessTrusted();
}

static void request_trust() {
    const void *keys[] = { kAXTrustedCheckOptionPrompt };
    const void *values[] = { kCFBooleanTrue };
    CFDictionaryRef opts = CFDictionaryCreate(NULL, keys, values, 1,
        &kCFCopyStringDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    AXIsProcessTrustedWithOptions(opts);
    CFRelease(opts);
}
*/
import "C"
import (
	"fmt"

	"github.com/mj1618/icepid/internal/platform"
)

// CheckAccessibilityPermission checks if the process has macOS accessibility permission.
// Returns an error with instructions if permission is not granted.
func CheckAccessibilityPermission() error {
	if C.is_trusted() == 0 {
		return fmt.Errorf("%w\n\n"+
			"Grant permission at: System Settings > Privacy & Security > Accessibility\n"+
			"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n"+
			"Then restart the terminal and try again.", platform.ErrAccessibilityDenied)
	}
	return nil
}

// IsAccessibilityTrusted returns true if the process has accessibility permission.
func IsAccessibilityTrusted() bool {
	return C.is_trusted() != 0
}

// RequestAccessibilityPermission shows the system prompt if permission is missing.
func RequestAccessibilityPermission() {
	C.request_trust()
}
