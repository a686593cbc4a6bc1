package clickup

import (
	"fmt"
	"time"

	"nodebridge/internal/common"
)

// TaskRequest is the body of a create task call.
type TaskRequest struct {
	Name            string             `json:"name"`
	Content         string             `json:"content,omitempty"`
	MarkdownContent string             `json:"markdown_content,omitempty"`
	Assignees       []int              `json:"assignees,omitempty"`
	Tags            []string           `json:"tags,omitempty"`
	Status          string             `json:"status,omitempty"`
	Priority        int                `json:"priority,omitempty"`
	DueDate         int64              `json:"due_date,omitempty"`
	DueDateTime     bool               `json:"due_date_time,omitempty"`
	TimeEstimate    int64              `json:"time_estimate,omitempty"`
	StartDate       int64              `json:"start_date,omitempty"`
	StartDateTime   bool               `json:"start_date_time,omitempty"`
	NotifyAll       bool               `json:"notify_all,omitempty"`
	Parent          string             `json:"parent,omitempty"`
	CustomFields    []CustomFieldValue `json:"custom_fields,omitempty"`
}

// FieldUpdate is the value written to a single custom field.
type FieldUpdate struct {
	Value        any           `json:"value"`
	ValueOptions *ValueOptions `json:"value_options,omitempty"`
}

// ValueOptions qualifies a date custom field value.
type ValueOptions struct {
	Time bool `json:"time"`
}

// CustomFieldValue is a custom field value addressed by field ID.
type CustomFieldValue struct {
	ID string `json:"id"`
	FieldUpdate
}

// FieldValue is one user-supplied custom field assignment.
type FieldValue struct {
	FieldID    string `json:"field_id"`
	FieldValue any    `json:"field_value"`
}

// FieldValues is a repeatable collection of custom field assignments.
type FieldValues struct {
	Values []FieldValue `json:"values"`
}

// CreateTaskParams are the item parameters of task:create.
type CreateTaskParams struct {
	List             string           `json:"list"`
	Name             string           `json:"name"`
	AdditionalFields CreateTaskFields `json:"additional_fields"`
}

// CreateTaskFields are the optional task:create parameters.
type CreateTaskFields struct {
	Assignees           []int       `json:"assignees"`
	CustomFieldsText    FieldValues `json:"custom_fields_text"`
	CustomFieldsOptions FieldValues `json:"custom_fields_options"`
	IsDateTime          bool        `json:"is_date_time"`
	Content             string      `json:"content"`
	MarkdownContent     bool        `json:"markdown_content"`
	DueDate             string      `json:"due_date"`
	DueDateTime         bool        `json:"due_date_time"`
	StartDate           string      `json:"start_date"`
	StartDateTime       bool        `json:"start_date_time"`
	NotifyAll           bool        `json:"notify_all"`
	ParentID            string      `json:"parent_id"`
	Priority            int         `json:"priority"`
	Status              string      `json:"status"`
	Tags                []string    `json:"tags"`
	TimeEstimate        int         `json:"time_estimate"` // minutes
}

// SetCustomFieldParams are the item parameters of task:setCustomField.
type SetCustomFieldParams struct {
	Task  string `json:"task"`
	Field struct {
		CustomFieldsText    FieldValues `json:"custom_fields_text"`
		CustomFieldsOptions FieldValues `json:"custom_fields_options"`
	} `json:"field"`
	AdditionalFields struct {
		IsDateTime bool `json:"is_date_time"`
	} `json:"additional_fields"`
}

// BuildTaskRequest validates the create parameters and maps them onto a TaskRequest.
func BuildTaskRequest(p *CreateTaskParams) (*TaskRequest, error) {
	if p.List == "" {
		return nil, common.NewValidationError("list is required")
	}
	if p.Name == "" {
		return nil, common.NewValidationError("name is required")
	}

	f := p.AdditionalFields
	task := &TaskRequest{
		Name:          p.Name,
		Content:       f.Content,
		Assignees:     f.Assignees,
		Tags:          f.Tags,
		Status:        f.Status,
		DueDateTime:   f.DueDateTime,
		StartDateTime: f.StartDateTime,
		NotifyAll:     f.NotifyAll,
		Parent:        f.ParentID,
	}

	if f.Priority != 0 {
		if f.Priority < 1 || f.Priority > 4 {
			return nil, common.NewValidationError(fmt.Sprintf("priority must be between 1 (urgent) and 4 (low), got %d", f.Priority))
		}
		task.Priority = f.Priority
	}

	var err error
	if task.DueDate, err = parseDate("due_date", f.DueDate); err != nil {
		return nil, err
	}
	if task.StartDate, err = parseDate("start_date", f.StartDate); err != nil {
		return nil, err
	}

	if f.TimeEstimate < 0 {
		return nil, common.NewValidationError("time_estimate must not be negative")
	}
	task.TimeEstimate = int64(f.TimeEstimate) * time.Minute.Milliseconds()

	if f.MarkdownContent {
		task.MarkdownContent = f.Content
		task.Content = ""
	}

	fields, err := customFieldValues(f.CustomFieldsText, f.CustomFieldsOptions, f.IsDateTime)
	if err != nil {
		return nil, err
	}
	task.CustomFields = fields

	return task, nil
}

// customFieldValues merges text and option assignments. Text values are
// flagged as date-times when isDateTime is set; option values never are.
func customFieldValues(text, options FieldValues, isDateTime bool) ([]CustomFieldValue, error) {
	values := make([]CustomFieldValue, 0, len(text.Values)+len(options.Values))

	for _, v := range text.Values {
		if v.FieldID == "" {
			return nil, common.NewValidationError("custom field id is required")
		}
		cf := CustomFieldValue{ID: v.FieldID, FieldUpdate: FieldUpdate{Value: v.FieldValue}}
		if isDateTime {
			cf.ValueOptions = &ValueOptions{Time: true}
		}
		values = append(values, cf)
	}

	for _, v := range options.Values {
		if v.FieldID == "" {
			return nil, common.NewValidationError("custom field id is required")
		}
		values = append(values, CustomFieldValue{ID: v.FieldID, FieldUpdate: FieldUpdate{Value: v.FieldValue}})
	}

	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate converts a date string to Unix milliseconds. Empty means unset.
func parseDate(field, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, common.NewValidationError(fmt.Sprintf("%s is not a valid date: %q", field, value))
}
