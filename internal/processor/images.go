package processor

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageImage is one raster image extracted from a page.
type PageImage struct {
	Page int
	Name string
	Data []byte
}

// ExtractImages extracts the raster images embedded in the document, per
// page. Images that fail to decode are logged and skipped.
func ExtractImages(filePath string) ([]PageImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pageImages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	var images []PageImage
	for _, byObj := range pageImages {
		for _, img := range byObj {
			data, err := io.ReadAll(img)
			if err != nil {
				log.Printf("Warning: failed to read image %s on page %d: %v", img.Name, img.PageNr, err)
				continue
			}
			if len(data) == 0 {
				continue
			}
			images = append(images, PageImage{
				Page: img.PageNr,
				Name: img.Name,
				Data: data,
			})
		}
	}

	return images, nil
}
