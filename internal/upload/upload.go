// Package upload stores recipe and avatar images and hands back the public
// URL they will be served from.
package upload

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// MaxImageSize caps a single uploaded file at 5 MB.
const MaxImageSize = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store saves one uploaded image and returns its public URL.
type Store interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// validate enforces the type/size rules shared by every backend and returns
// the extension to store the file under.
func validate(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxImageSize {
		return "", fmt.Errorf("file %q exceeds the 5 MB limit", fh.Filename)
	}
	ct := fh.Header.Get("Content-Type")
	if ext, ok := allowedTypes[ct]; ok {
		return ext, nil
	}
	// Some clients send a generic content type; fall back to the extension.
	switch ext := strings.ToLower(filepath.Ext(fh.Filename)); ext {
	case ".jpg", ".jpeg":
		return ".jpg", nil
	case ".png", ".webp":
		return ext, nil
	}
	return "", fmt.Errorf("only JPG, PNG and WEBP images are allowed")
}
