// Package upload turns multipart file parts into models.FileBlob values.
package upload

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/models"
)

const (
	MediaPDF  = "application/pdf"
	MediaDOC  = "application/msword"
	MediaDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	DefaultResumeLimit  = 5 * 1024 * 1024
	DefaultPictureLimit = 2 * 1024 * 1024
)

// containers lists the generic formats a sniffer may report for an allowed type.
var containers = map[string][]string{
	MediaDOCX: {"application/zip"},
	MediaDOC:  {"application/x-ole-storage"},
}

type Policy struct {
	MaxBytes     int64
	AllowedTypes []string
	// Description is used in rejection messages, e.g. "PDF and Word documents".
	Description string
}

func ResumePolicy(maxBytes int64) Policy {
	if maxBytes <= 0 {
		maxBytes = DefaultResumeLimit
	}
	return Policy{
		MaxBytes:     maxBytes,
		AllowedTypes: []string{MediaPDF, MediaDOC, MediaDOCX},
		Description:  "PDF and Word documents",
	}
}

func PicturePolicy(maxBytes int64) Policy {
	if maxBytes <= 0 {
		maxBytes = DefaultPictureLimit
	}
	return Policy{
		MaxBytes:     maxBytes,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		Description:  "JPEG, PNG, WebP and GIF images",
	}
}

func (p Policy) allows(mediaType string) bool {
	for _, t := range p.AllowedTypes {
		if t == mediaType {
			return true
		}
	}
	return false
}

// Check validates an already decoded blob against the policy.
func (p Policy) Check(blob models.FileBlob) error {
	if blob.Size <= 0 || len(blob.Data) == 0 {
		return apperr.Validation("file is empty")
	}
	if blob.Size > p.MaxBytes || int64(len(blob.Data)) > p.MaxBytes {
		return tooLarge(p.MaxBytes)
	}
	if !p.allows(blob.MediaType) {
		return apperr.Validation("Only " + p.Description + " are allowed")
	}
	return nil
}

type Intake struct {
	policy Policy
}

func NewIntake(policy Policy) *Intake {
	return &Intake{policy: policy}
}

func (in *Intake) Policy() Policy {
	return in.policy
}

// Decode reads fh fully into memory, rejecting oversize parts before buffering them and parts whose
// content does not match an allowed media type.
func (in *Intake) Decode(fh *multipart.FileHeader) (models.FileBlob, error) {
	if fh == nil {
		return models.FileBlob{}, apperr.Validation("file is required")
	}
	if fh.Size > in.policy.MaxBytes {
		return models.FileBlob{}, tooLarge(in.policy.MaxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return models.FileBlob{}, apperr.Internal("failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, in.policy.MaxBytes+1))
	if err != nil {
		return models.FileBlob{}, apperr.Internal("failed to read upload", err)
	}
	if int64(len(data)) > in.policy.MaxBytes {
		return models.FileBlob{}, tooLarge(in.policy.MaxBytes)
	}

	mediaType, err := in.resolveType(fh.Header.Get("Content-Type"), data)
	if err != nil {
		return models.FileBlob{}, err
	}
	blob := models.FileBlob{
		Name:      sanitizeName(fh.Filename),
		MediaType: mediaType,
		Size:      int64(len(data)),
		Data:      data,
	}
	return blob, in.policy.Check(blob)
}

func (in *Intake) resolveType(declared string, data []byte) (string, error) {
	detected := mimetype.Detect(data)
	declared = normalize(declared)
	if declared == "" || declared == "application/octet-stream" {
		sniffed := normalize(detected.String())
		if !in.policy.allows(sniffed) {
			return "", apperr.Validation("Only " + in.policy.Description + " are allowed")
		}
		return sniffed, nil
	}
	if !in.policy.allows(declared) {
		return "", apperr.Validation("Only " + in.policy.Description + " are allowed")
	}
	if !matches(detected, declared) {
		return "", apperr.Validation(fmt.Sprintf("file content does not match declared type %s", declared))
	}
	return declared, nil
}

func matches(detected *mimetype.MIME, declared string) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(declared) {
			return true
		}
		for _, container := range containers[declared] {
			if m.Is(container) {
				return true
			}
		}
	}
	return false
}

func normalize(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "upload"
	}
	return name
}

func tooLarge(limit int64) error {
	return apperr.New(apperr.CodeTooLarge, fmt.Sprintf("file exceeds the %d MB limit", limit/(1024*1024)))
}
