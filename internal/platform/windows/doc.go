// Package windows provides the Windows platform backend. Windows are
// enumerated through user32, process names are resolved with gopsutil and
// accessibility trees are read through the UI Automation COM API.
package windows
