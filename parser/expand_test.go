package parser_test

import (
	"testing"

	apperrors "booking-calendar/errors"
	"booking-calendar/models"
	"booking-calendar/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRows(t *testing.T) {
	rows := []models.ParsedRow{
		{
			Section:    models.SectionDisplay,
			Product:    "체크리스트",
			Target:     "KR, US",
			Start:      "2025-07-01",
			End:        "2025-07-03",
			Advertiser: "마이리얼트립",
		},
	}

	requests, err := parser.ExpandRows(rows)
	require.NoError(t, err)
	require.Len(t, requests, 3, "one request per day of the range")

	for i, want := range []string{"2025-07-01", "2025-07-02", "2025-07-03"} {
		assert.Equal(t, want, requests[i].Date)
		assert.Equal(t, "checklist", requests[i].Family)
		assert.False(t, requests[i].Pinned())
		assert.Equal(t, "KR, US", requests[i].Countries)
		assert.Zero(t, requests[i].GuaranteedExposure, "country families carry no exposure")
		assert.Equal(t, "마이리얼트립", requests[i].Advertiser)
	}
}

func TestExpandRows_ExposureFamilies(t *testing.T) {
	tests := map[string]struct {
		row              models.ParsedRow
		expectedExposure int
	}{
		"DailyColumnWins": {
			row: models.ParsedRow{
				Product: "인터랙티브 배너", Start: "2025-07-01", End: "2025-07-02",
				DailyExposure: intPtr(30000), TotalExposure: intPtr(999999),
			},
			expectedExposure: 30000,
		},
		"TotalSpreadAcrossDays": {
			row: models.ParsedRow{
				Product: "인터랙티브 배너", Start: "2025-07-01", End: "2025-07-07",
				TotalExposure: intPtr(70000),
			},
			expectedExposure: 10000,
		},
		"NoExposureColumns": {
			row: models.ParsedRow{
				Product: "인터랙티브 배너", Start: "2025-07-01", End: "2025-07-01",
			},
			expectedExposure: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			requests, err := parser.ExpandRows([]models.ParsedRow{tt.row})
			require.NoError(t, err)
			require.NotEmpty(t, requests)
			for _, r := range requests {
				assert.Equal(t, "interactive", r.Family)
				assert.Equal(t, tt.expectedExposure, r.GuaranteedExposure)
				assert.Empty(t, r.Countries, "exposure families carry no countries")
			}
		})
	}
}

func TestValidateRows(t *testing.T) {
	valid := models.ParsedRow{Product: "체크리스트", Advertiser: "여기어때", Start: "2025-07-01", End: "2025-07-02"}

	tests := map[string]struct {
		rows     []models.ParsedRow
		expected error
	}{
		"Valid":             {[]models.ParsedRow{valid}, nil},
		"Empty":             {nil, apperrors.ErrNoRows},
		"MissingProduct":    {[]models.ParsedRow{{Advertiser: "여기어때", Start: "2025-07-01", End: "2025-07-02"}}, apperrors.ErrNoFamily},
		"MissingAdvertiser": {[]models.ParsedRow{{Product: "체크리스트", Start: "2025-07-01", End: "2025-07-02"}}, apperrors.ErrNoAdvertiser},
		"InvertedRange":     {[]models.ParsedRow{{Product: "체크리스트", Advertiser: "여기어때", Start: "2025-07-05", End: "2025-07-01"}}, apperrors.ErrEmptyRange},
		"BadDate":           {[]models.ParsedRow{{Product: "체크리스트", Advertiser: "여기어때", Start: "notadate", End: "2025-07-01"}}, apperrors.ErrInvalidDate},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := parser.ValidateRows(tt.rows)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
