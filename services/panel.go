// Package services holds the per-service settings screens. Only the logging
// section lives here for now.
package services

import (
	"strconv"

	domainService "github.com/AzielCF/az-console/domains/service"
)

const (
	SectionTitle = "Logging"

	LabelStoreBody     = "Capture request and response bodies:"
	LabelRetentionDays = "Retention days (defaults to 30 days):"
	LabelPagerdutyKey  = "Pagerduty service key (for optional alerting)"

	// SidebarID anchors the section in the service settings sidebar.
	SidebarID = "logging"

	FieldRetentionDays = "retentionDays"
	FieldPagerdutyKey  = "pagerdutyKey"
)

type Toggle struct {
	Label    string `json:"label"`
	Checked  bool   `json:"checked"`
	Disabled bool   `json:"disabled"`
}

type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// LoggingPanel is the rendered logging section of a service form.
type LoggingPanel struct {
	SidebarID     string `json:"sidebarId"`
	Title         string `json:"title"`
	StoreBody     Toggle `json:"storeBody"`
	RetentionDays Field  `json:"retentionDays"`
	PagerdutyKey  Field  `json:"pagerdutyKey"`
}

// FieldEnabled reports whether the retention and pagerduty inputs accept edits.
func FieldEnabled(editing, captureEnabled bool) bool {
	return editing && captureEnabled
}

// LoggingSection renders the logging controls of form. A form without a log
// config renders as capture off with empty fields.
func LoggingSection(form domainService.ServiceForm, editing bool, sidebarID string) LoggingPanel {
	var cfg domainService.LogConfig
	if form.LogConfig != nil {
		cfg = *form.LogConfig
	}

	retention := ""
	if cfg.RetentionDays != 0 {
		retention = strconv.Itoa(cfg.RetentionDays)
	}
	fieldsOn := FieldEnabled(editing, cfg.StoreBody)

	return LoggingPanel{
		SidebarID: sidebarID,
		Title:     SectionTitle,
		StoreBody: Toggle{
			Label:    LabelStoreBody,
			Checked:  cfg.StoreBody,
			Disabled: !editing,
		},
		RetentionDays: Field{
			Name:     FieldRetentionDays,
			Label:    LabelRetentionDays,
			Value:    retention,
			Disabled: !fieldsOn,
		},
		PagerdutyKey: Field{
			Name:     FieldPagerdutyKey,
			Label:    LabelPagerdutyKey,
			Value:    cfg.PagerdutyKey,
			Disabled: !fieldsOn,
		},
	}
}
