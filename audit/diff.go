// Package audit computes the audit trail entries a publisher update should
// produce. The calculator is pure: it performs no I/O and its output is
// fully determined by the existing record and the requested patch.
package audit

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/maxpert/pubcfg/model"
)

const (
	emptyToken = "(empty)"
	noneToken  = "(none)"
)

// GenerateAuditLogs compares an existing publisher against a partial update
// and returns one UPDATE entry per changed logical field, in a fixed order:
// scalar fields first, then tags and allowed domains, then pages. Fields
// absent from the patch never produce entries, even when they happen to
// equal the stored value.
//
// Comparison is performed on string renderings of both sides, mirroring the
// wire format the values are logged in. A side effect of this is that an
// empty string and an absent value compare equal; this looseness is part of
// the contract.
func GenerateAuditLogs(publisherID string, existing model.Publisher, patch model.PublisherPatch, changedBy string) []model.AuditLogInput {
	var logs []model.AuditLogInput
	logs = append(logs, trackScalarChanges(publisherID, existing, patch, changedBy)...)
	logs = append(logs, trackListChanges(publisherID, existing, patch, changedBy)...)
	logs = append(logs, trackPagesChange(publisherID, existing, patch, changedBy)...)
	return logs
}

type scalarField struct {
	label    string
	oldValue string
	newValue *string
}

func trackScalarChanges(publisherID string, existing model.Publisher, patch model.PublisherPatch, changedBy string) []model.AuditLogInput {
	fields := []scalarField{
		{"Alias Name", existing.AliasName, patch.AliasName},
		{"Status", strconv.FormatBool(existing.IsActive), boolString(patch.IsActive)},
		{"Publisher Dashboard", existing.PublisherDashboard, patch.PublisherDashboard},
		{"Monitor Dashboard", existing.MonitorDashboard, patch.MonitorDashboard},
		{"QA Dashboard", existing.QAStatusDashboard, patch.QAStatusDashboard},
		{"Custom CSS", existing.CustomCSS, patch.CustomCSS},
		{"Notes", existing.Notes, patch.Notes},
	}

	var logs []model.AuditLogInput
	for _, f := range fields {
		if f.newValue == nil {
			continue
		}
		if f.oldValue == *f.newValue {
			continue
		}
		logs = append(logs, model.AuditLogInput{
			PublisherID: publisherID,
			Action:      model.AuditActionUpdate,
			FieldName:   ptr(f.label),
			OldValue:    ptr(orToken(f.oldValue, emptyToken)),
			NewValue:    ptr(orToken(*f.newValue, emptyToken)),
			ChangedBy:   changedBy,
		})
	}
	return logs
}

func trackListChanges(publisherID string, existing model.Publisher, patch model.PublisherPatch, changedBy string) []model.AuditLogInput {
	fields := []struct {
		label    string
		oldValue []string
		newValue *[]string
	}{
		{"Tags", existing.Tags, patch.Tags},
		{"Allowed Domains", existing.AllowedDomains, patch.AllowedDomains},
	}

	var logs []model.AuditLogInput
	for _, f := range fields {
		if f.newValue == nil {
			continue
		}
		// Element order matters: reordering counts as a change.
		if slices.Equal(f.oldValue, *f.newValue) {
			continue
		}
		logs = append(logs, model.AuditLogInput{
			PublisherID: publisherID,
			Action:      model.AuditActionUpdate,
			FieldName:   ptr(f.label),
			OldValue:    ptr(orToken(strings.Join(f.oldValue, ", "), noneToken)),
			NewValue:    ptr(orToken(strings.Join(*f.newValue, ", "), noneToken)),
			ChangedBy:   changedBy,
		})
	}
	return logs
}

func trackPagesChange(publisherID string, existing model.Publisher, patch model.PublisherPatch, changedBy string) []model.AuditLogInput {
	if patch.Pages == nil || slices.Equal(existing.Pages, *patch.Pages) {
		return nil
	}
	// Coarse-grained on purpose: only the counts are logged.
	return []model.AuditLogInput{{
		PublisherID: publisherID,
		Action:      model.AuditActionUpdate,
		FieldName:   ptr("Pages"),
		OldValue:    ptr(fmt.Sprintf("%d page(s)", len(existing.Pages))),
		NewValue:    ptr(fmt.Sprintf("%d page(s)", len(*patch.Pages))),
		ChangedBy:   changedBy,
	}}
}

func boolString(b *bool) *string {
	if b == nil {
		return nil
	}
	return ptr(strconv.FormatBool(*b))
}

func orToken(s, token string) string {
	if s == "" {
		return token
	}
	return s
}

func ptr(s string) *string {
	return &s
}
