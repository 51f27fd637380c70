package slots

import (
	"encoding/json"
	"os"

	"booking-calendar/models"
)

// Category groups families by how the calendar renders them.
type Category string

const (
	CategoryBanner      Category = "banner"
	CategoryFunnel      Category = "funnel"
	CategoryInteractive Category = "interactive"
	CategoryAlert       Category = "alert"
	CategoryOther       Category = "other"
)

// FamilyInfo is the static display rule for one slot family.
type FamilyInfo struct {
	Label       string   // display label (Korean, per the sales sheets)
	Category    Category
	HasExposure bool // renders/tracks guaranteed daily impressions
	HasCountry  bool // renders/stores target country tokens
}

var catalog = map[string]FamilyInfo{
	"interactive":      {Label: "인터랙티브", Category: CategoryInteractive, HasExposure: true},
	"main_home_popup":  {Label: "메인홈 팝업", Category: CategoryBanner, HasCountry: true},
	"main_home_front":  {Label: "메인홈 전면배너", Category: CategoryBanner, HasCountry: true},
	"main_home_banner": {Label: "메인홈 배너", Category: CategoryBanner, HasCountry: true},
	"main_home":        {Label: "메인 홈", Category: CategoryBanner, HasCountry: true},
	"checklist":        {Label: "체크리스트", Category: CategoryFunnel, HasCountry: true},
	"funnel_search":    {Label: "검색 퍼널", Category: CategoryFunnel, HasCountry: true},
	"funnel_domestic":  {Label: "국내 여행 퍼널", Category: CategoryFunnel, HasCountry: true},
	"funnel_oversea":   {Label: "해외 여행 퍼널", Category: CategoryFunnel, HasCountry: true},
	"funnel_traveler":  {Label: "여행자 퍼널", Category: CategoryFunnel, HasCountry: true},
	"friend_talk":      {Label: "친구톡", Category: CategoryAlert, HasExposure: true},
	"promo_fe":         {Label: "프모페", Category: CategoryOther},
}

// Info returns the display rule for a concrete slot id or family key.
// Unknown families render as plain banners.
func Info(id string) FamilyInfo {
	if info, ok := catalog[Canonical(id)]; ok {
		return info
	}
	return FamilyInfo{Category: CategoryBanner, HasCountry: true}
}

// ExposureTracked reports whether the slot's family tracks guaranteed
// daily impressions rather than country targeting.
func ExposureTracked(id string) bool {
	return Info(id).HasExposure
}

// productToFamily maps sheet product names to family base keys.
var productToFamily = map[string]string{
	"인터랙티브 배너": "interactive",
	"메인홈 전면배너": "main_home_front",
	"메인홈 배너":   "main_home_banner",
	"메인 홈":     "main_home",
	"체크리스트":    "checklist",
	"검색 퍼널":    "funnel_search",
	"국내 여행 퍼널": "funnel_domestic",
	"해외 여행 퍼널": "funnel_oversea",
	"여행자 퍼널":   "funnel_traveler",
	"친구톡":      "friend_talk",
	"프모페":      "promo_fe",
}

// ProductFamily resolves a sheet product name to its family key. When
// the product is not catalogued the normalized product name itself is
// used, so one-off products still flow through allocation.
func ProductFamily(product string) string {
	if f, ok := productToFamily[product]; ok {
		return f
	}
	return Normalize(product)
}

// DefaultFamilyTable is the built-in slot layout: each family's
// concrete slots in display order. Mirrors the production sheet
// layout; override with LoadFamilyTable for other layouts.
func DefaultFamilyTable() models.FamilyTable {
	return models.FamilyTable{
		"interactive":      {"interactive_t1"},
		"main_home_popup":  {"main_home_popup_t1", "main_home_popup_t2"},
		"main_home_front":  {"main_home_front_t1"},
		"main_home_banner": {"main_home_banner_t1", "main_home_banner_t2", "main_home_banner_t3"},
		"main_home":        {"main_home_t1"},
		"checklist":        {"checklist_t1", "checklist_t2"},
		"funnel_search":    {"funnel_search_t1", "funnel_search_t2"},
		"funnel_domestic":  {"funnel_domestic_t1", "funnel_domestic_t2"},
		"funnel_oversea":   {"funnel_oversea_t1", "funnel_oversea_t2"},
		"funnel_traveler":  {"funnel_traveler_t1"},
		"friend_talk":      {"friend_talk_t1"},
		"promo_fe":         {"promo_fe_t1"},
	}
}

// LoadFamilyTable reads a family → ordered slot id table from a JSON
// file, for layouts that differ from the built-in one.
func LoadFamilyTable(path string) (models.FamilyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table models.FamilyTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, err
	}
	return table, nil
}
