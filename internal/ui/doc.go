// Package ui is the Fyne front end: an image surface that tracks a drag
// selection, and the main window that hosts it next to the recognized text,
// with File, Edit and Language menus and a status line.
package ui
