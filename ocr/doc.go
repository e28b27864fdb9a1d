// Package ocr transcribes regions of a page image locally with the
// Tesseract OCR engine, through gosseract.
//
// It is the offline counterpart of the compute service's handwriting
// recognizer: [Client.RecognizeRegions] has the same shape as the remote
// one and can back a session's re-OCR command.
//
// Tesseract support is compiled in with the "ocr" build tag:
//
//	go build -tags ocr
//
// This requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
//
// Without the tag, [New] returns [ErrOCRNotEnabled]. Cropping page regions
// with [Crop] and [EncodeRegions] is available in both builds.
package ocr
