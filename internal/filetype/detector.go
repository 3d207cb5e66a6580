package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const mimePDF = "application/pdf"

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType  string
	Extension string
	IsPDF     bool
	IsImage   bool
}

// ValidationError reports an input that cannot be processed at all.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Path, e.Message)
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	info := classify(mtype)
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", filePath).Msg("detected file type")
	return info, nil
}

// DetectBytes classifies an in-memory payload.
func (d *Detector) DetectBytes(data []byte) *FileTypeInfo {
	return classify(mimetype.Detect(data))
}

// RequirePDF returns a *ValidationError unless filePath holds a PDF.
func (d *Detector) RequirePDF(filePath string) error {
	info, err := d.Detect(filePath)
	if err != nil {
		return err
	}
	if !info.IsPDF {
		return &ValidationError{Path: filePath, Message: fmt.Sprintf("not a PDF (detected %s)", info.MIMEType)}
	}
	return nil
}

func classify(mtype *mimetype.MIME) *FileTypeInfo {
	mimeType := mtype.String()
	return &FileTypeInfo{
		MIMEType:  mimeType,
		Extension: mtype.Extension(),
		IsPDF:     mtype.Is(mimePDF),
		IsImage:   strings.HasPrefix(mimeType, "image/"),
	}
}
