package service

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the webp decoder with image.Decode

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

var pdfMagic = []byte("%PDF-")

// InspectImage checks that f decodes as an image and fills in a missing
// content type. The upstream stores whatever it is sent, so a file that is
// not an image is stopped here.
func InspectImage(field string, f *catalogapi.File) error {
	if f == nil || len(f.Data) == 0 {
		return invalid(field, "Please select an image")
	}
	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return invalid(field, fmt.Sprintf("%s is not a supported image", displayName(f)))
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return invalid(field, fmt.Sprintf("%s is empty", displayName(f)))
	}
	if f.ContentType == "" || f.ContentType == "application/octet-stream" {
		f.ContentType = http.DetectContentType(f.Data)
	}
	return nil
}

// InspectPDF checks the PDF signature. Leading whitespace is tolerated.
func InspectPDF(field string, f *catalogapi.File) error {
	if f == nil || len(f.Data) == 0 {
		return invalid(field, "Please upload a PDF")
	}
	if !bytes.HasPrefix(bytes.TrimLeft(f.Data, " \t\r\n"), pdfMagic) {
		return invalid(field, fmt.Sprintf("%s is not a PDF document", displayName(f)))
	}
	f.ContentType = "application/pdf"
	return nil
}

func displayName(f *catalogapi.File) string {
	if name := strings.TrimSpace(f.Name); name != "" {
		return name
	}
	return "file"
}
