package model

import "time"

type QcSummary struct {
	QcSummaryID    uint64    `gorm:"column:qc_summary_id;primaryKey;autoIncrement"`
	CaseID         uint64    `gorm:"column:case_id;not null;uniqueIndex:ux_qc_case_kind"`
	Kind           string    `gorm:"column:kind;type:text;not null;uniqueIndex:ux_qc_case_kind"`
	Classification string    `gorm:"column:classification;type:text;not null"`
	RuleHits       int       `gorm:"column:rule_hits;not null;default:0"`
	DetailJSON     string    `gorm:"column:detail_json;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;index"`
}

func (QcSummary) TableName() string {
	return "qc_summaries"
}
