package backend

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/qualify/internal/common"
)

var allowedTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// Supported reports whether the service accepts files with this name.
func Supported(filename string) bool {
	_, ok := allowedTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func contentTypeFor(filename string) string {
	if ct, ok := allowedTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Validate rejects a batch before any network call: it must have at least
// one file and every file must be a PDF or an image.
func Validate(files []Upload) error {
	if len(files) == 0 {
		return common.NewValidationError("files", "select at least one document")
	}
	for _, f := range files {
		if !Supported(f.Filename) {
			return common.NewValidationError("files",
				fmt.Sprintf("%s: unsupported file type (accepted: PDF, PNG, JPG, TIFF)", f.Filename))
		}
		if len(f.Data) == 0 {
			return common.NewValidationError("files", fmt.Sprintf("%s is empty", f.Filename))
		}
	}
	return nil
}
