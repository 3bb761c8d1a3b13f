// Package uploads runs multipart image uploads through validation and into
// object storage.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/media"
	"kaleidorium/internal/infra/storage"
	"kaleidorium/internal/security/upload"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multipart framing and text fields on top of the file itself
const formOverhead = 1 << 20

// ReadFile pulls the named multipart file from the request and validates it
// against policy. On failure it writes the response and returns false.
func ReadFile(c *gin.Context, field string, policy upload.Policy) (*upload.File, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, policy.MaxSize+formOverhead)

	fh, err := c.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeValidation(c, &upload.ValidationError{Code: upload.CodeFileTooLarge, Message: fmt.Sprintf("File exceeds the %d MB limit", policy.MaxSize/upload.MiB)})
			return nil, false
		}
		apierr.Message(c, apierr.Validation, "A file is required")
		return nil, false
	}
	if fh.Size > policy.MaxSize {
		writeValidation(c, &upload.ValidationError{Code: upload.CodeFileTooLarge, Message: fmt.Sprintf("File exceeds the %d MB limit", policy.MaxSize/upload.MiB)})
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, policy.MaxSize+1))
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return nil, false
	}

	file, err := upload.Validate(policy, fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		var ve *upload.ValidationError
		if errors.As(err, &ve) {
			zerolog.Ctx(c.Request.Context()).Warn().
				Str("code", ve.Code).
				Str("filename", fh.Filename).
				Int64("size", fh.Size).
				Msg("upload rejected")
			writeValidation(c, ve)
			return nil, false
		}
		apierr.Respond(c, apierr.Server, err, nil)
		return nil, false
	}
	return file, true
}

func writeValidation(c *gin.Context, ve *upload.ValidationError) {
	c.AbortWithStatusJSON(ve.Status(), gin.H{"error": ve.Message, "code": ve.Code})
}

// Put stores a validated file under <prefix>/<storage name> in bucket and
// returns the unsaved image row describing it.
func Put(ctx context.Context, st storage.Store, bucket, prefix string, f *upload.File) (media.Image, error) {
	key := f.StorageName
	if prefix != "" {
		key = prefix + "/" + f.StorageName
	}
	obj, err := st.Put(ctx, bucket, key, f.ContentType, f.Data)
	if err != nil {
		return media.Image{}, err
	}
	return media.Image{
		Bucket:       obj.Bucket,
		ObjectKey:    obj.Key,
		PublicURL:    obj.PublicURL,
		Backend:      obj.Backend,
		MimeType:     f.ContentType,
		Size:         f.Size,
		OriginalName: f.SafeName,
	}, nil
}

// Discard removes a stored object after a failed database write. Errors are
// only logged.
func Discard(ctx context.Context, st storage.Store, img media.Image) {
	if err := storage.Remove(ctx, st, img.Backend, img.Bucket, img.ObjectKey); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("bucket", img.Bucket).
			Str("key", img.ObjectKey).
			Msg("failed to remove orphaned upload")
	}
}
