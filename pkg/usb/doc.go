// Package usb classifies physically connected USB devices for hot-plug
// handling.
//
// The set of relevant devices comes from a udev rules file that lists one
// vendor/product pair per supported controller. Enumerator reports what is
// plugged in right now and Watcher turns device-node changes into a
// debounced notification channel.
package usb
