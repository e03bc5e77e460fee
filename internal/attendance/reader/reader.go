// Package reader loads timecard entries from a local workbook or a Google spreadsheet.
package reader

import (
	"strings"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
)

// SourceGoogle selects the Google Sheets reader.
const SourceGoogle = "google"

// New picks the reader for source: "google" or a path to an xlsx file.
func New(cfg *config.Config, source string) (domain.TimecardReader, error) {
	if strings.EqualFold(strings.TrimSpace(source), SourceGoogle) {
		if err := cfg.GoogleSheet.Validate(); err != nil {
			return nil, domain.Wrap(domain.ErrAuthentication, "google sheet config", err)
		}
		return NewGoogleReader(cfg.GoogleSheet), nil
	}
	return NewExcelReader(source), nil
}
