// Package selection tracks a user-dragged rectangle over a displayed image and
// converts it from display space to the source bitmap's pixel space.
//
// The package is toolkit-free: the Fyne image surface feeds pointer events into
// a Tracker and forwards the finished Rect, together with a Viewport snapshot,
// to the controller.
//
// # Coordinate System
//
// Both spaces use (0,0) at the top-left corner, X increasing rightward and Y
// increasing downward. A Rect is (X, Y, W, H); the equivalent image.Rectangle
// is inclusive at Min and exclusive at Max.
//
// # Display vs. Source Space
//
// The surface shows the bitmap scaled to fit (aspect preserved, centered). A
// rectangle captured in display space only matches source pixels at 1:1 zoom,
// so every region goes through Viewport.ToSource before cropping.
package selection
