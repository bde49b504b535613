// Package imaging loads, decodes and crops the bitmaps that are sent to OCR.
//
// Decoding is registered for PNG, JPEG and GIF from the standard library and
// BMP, TIFF and WebP from golang.org/x/image, so anything a user is likely to
// drop on the window can be displayed and recognized.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. For
// regions, Min is inclusive and Max is exclusive, matching image.Rectangle.
//
// # Crop Files
//
// The tesseract CLI only accepts file paths, so region recognition writes the
// cropped bitmap to disk with SaveCrop. Every call gets its own file name
// (ocrdesk-crop-<uuid>.png) so concurrent recognitions never overwrite each
// other's input. Callers remove the file when the recognition finishes.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless.
package imaging
