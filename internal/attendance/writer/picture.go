package writer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Stamper renders a seal image as PNG bytes.
type Stamper interface {
	PNG(label1, label2, label3 string, size int) ([]byte, error)
}

// StampLabel is the top line of every seal.
const StampLabel = "JS"

// StampDateFormat is the date printed in the middle of a seal.
const StampDateFormat = "2006.01.02"

// replacePicture drops the picture previously inserted under name at cell and
// inserts data scaled to width pixels. Other pictures anchored at cell are
// put back.
func replacePicture(f *excelize.File, sheet, cell, name string, data []byte, size, width int) error {
	pics, err := f.GetPictures(sheet, cell)
	if err != nil {
		return fmt.Errorf("get pictures at %s: %w", cell, err)
	}
	var (
		found  bool
		others []excelize.Picture
	)
	for _, p := range pics {
		if p.Format != nil && p.Format.AltText == name {
			found = true
			continue
		}
		others = append(others, p)
	}
	if found {
		if err := f.DeletePicture(sheet, cell); err != nil {
			return fmt.Errorf("delete picture at %s: %w", cell, err)
		}
		for i := range others {
			if err := f.AddPictureFromBytes(sheet, cell, &others[i]); err != nil {
				return fmt.Errorf("restore picture at %s: %w", cell, err)
			}
		}
	}

	scale := float64(width) / float64(size)
	err = f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      data,
		Format: &excelize.GraphicOptions{
			AltText:         name,
			ScaleX:          scale,
			ScaleY:          scale,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
	if err != nil {
		return fmt.Errorf("add picture at %s: %w", cell, err)
	}
	return nil
}
