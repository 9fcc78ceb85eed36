// Package sourcepid resolves which application created each menu bar item.
//
// On recent macOS releases most menu bar item windows are owned by a system
// host process, so the window's owner PID says little about where the item
// came from. The resolver matches the item window's frame against the
// children of every candidate application's extras menu bar in the
// accessibility tree, and the Cache remembers the answer per window ID.
//
// Accessibility calls block. They only ever run inside Cache resolutions,
// which are bounded by a worker semaphore and deduplicated per window.
package sourcepid
