// Package upload validates user supplied image files before they reach
// object storage. Validate runs every check in a fixed order and stops at the
// first failure.
package upload

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWEBP = "image/webp"
	MimeGIF  = "image/gif"
)

const MiB = 1 << 20

type Policy struct {
	MaxSize      int64
	AllowedTypes []string
}

var (
	ArtworkPolicy        = Policy{MaxSize: 10 * MiB, AllowedTypes: []string{MimeJPEG, MimePNG, MimeWEBP, MimeGIF}}
	ProfilePicturePolicy = Policy{MaxSize: 5 * MiB, AllowedTypes: []string{MimeJPEG, MimePNG, MimeWEBP}}
)

func (p Policy) allows(mime string) bool {
	for _, t := range p.AllowedTypes {
		if t == mime {
			return true
		}
	}
	return false
}

const (
	CodeEmptyFile         = "empty_file"
	CodeFileTooLarge      = "file_too_large"
	CodeUnsupportedType   = "unsupported_type"
	CodeInvalidFilename   = "invalid_filename"
	CodeExtensionMismatch = "extension_mismatch"
	CodeSignatureMismatch = "signature_mismatch"
	CodeMaliciousContent  = "malicious_content"
)

type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Code + ": " + e.Message }

// Status is the HTTP status a handler should answer with.
func (e *ValidationError) Status() int {
	if e.Code == CodeFileTooLarge {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func fail(code, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}

// File is an upload that passed validation.
type File struct {
	Data         []byte
	ContentType  string
	Ext          string
	Size         int64
	OriginalName string
	SafeName     string
	StorageName  string
}

// Validate checks data against policy. The returned error is always a
// *ValidationError.
func Validate(policy Policy, filename, declaredType string, data []byte) (*File, error) {
	if len(data) == 0 {
		return nil, fail(CodeEmptyFile, "File is empty")
	}
	if int64(len(data)) > policy.MaxSize {
		return nil, fail(CodeFileTooLarge, fmt.Sprintf("File exceeds the %d MB limit", policy.MaxSize/MiB))
	}

	mime := NormalizeMime(declaredType)
	if !policy.allows(mime) {
		return nil, fail(CodeUnsupportedType, "Unsupported file type. Allowed: "+allowedList(policy))
	}

	safe := SanitizeFilename(filename)
	ext := extension(safe)
	if ext == "" {
		return nil, fail(CodeInvalidFilename, "File name must have an extension")
	}
	if extMime[ext] != mime {
		return nil, fail(CodeExtensionMismatch, "File extension does not match its type")
	}

	if !MatchesSignature(mime, data) {
		return nil, fail(CodeSignatureMismatch, "File content does not match its type")
	}

	if _, found := ScanMalicious(data); found {
		return nil, fail(CodeMaliciousContent, "File contains disallowed content")
	}

	canonical := canonicalExt[mime]
	return &File{
		Data:         data,
		ContentType:  mime,
		Ext:          canonical,
		Size:         int64(len(data)),
		OriginalName: filename,
		SafeName:     safe,
		StorageName:  uuid.NewString() + "." + canonical,
	}, nil
}

// NormalizeMime lowercases a content type and strips parameters.
func NormalizeMime(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

var extMime = map[string]string{
	"jpg":  MimeJPEG,
	"jpeg": MimeJPEG,
	"png":  MimePNG,
	"webp": MimeWEBP,
	"gif":  MimeGIF,
}

var canonicalExt = map[string]string{
	MimeJPEG: "jpg",
	MimePNG:  "png",
	MimeWEBP: "webp",
	MimeGIF:  "gif",
}

func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func allowedList(p Policy) string {
	out := make([]string, 0, len(p.AllowedTypes))
	for _, t := range p.AllowedTypes {
		out = append(out, strings.TrimPrefix(t, "image/"))
	}
	return strings.Join(out, ", ")
}
