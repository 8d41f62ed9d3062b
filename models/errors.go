// ABOUTME: Error taxonomy shared by capture, transcription, generation and upload paths
// ABOUTME: Callers wrap these with fmt.Errorf and match them with errors.Is
package models

import "errors"

var (
	// ErrDeviceUnavailable covers denied permission, a missing device and a device already in use.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")

	ErrTranscriptionUnavailable = errors.New("transcription unavailable")
	ErrGenerationUnavailable    = errors.New("summary generation unavailable")
	ErrRemoteUpload             = errors.New("remote upload failed")
	ErrNotAuthorized            = errors.New("remote document store not authorized")
	ErrNotFound                 = errors.New("not found")
)
