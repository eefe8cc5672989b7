// Package autosplit runs sandboxed auto-splitter modules for speedrun timers.
//
// A host creates a SettingsStore, then a Runtime from a module path, the
// store and a TimerControl. It calls Step at roughly TickRate hertz; each
// step runs the module's on_update, which may read target process memory,
// read or change settings, and drive the timer through the bridge.
//
// Modules are chosen by file extension: ".js" runs on goja, ".lua" on
// go-lua and ".yaml" is a declarative rules document whose conditions are
// expr (or CEL) expressions. Every module reaches the host only through the
// timer, settings, process and runtime capability namespaces, and every call
// runs under a Budget so a runaway module faults instead of hanging.
package autosplit
