package clickup

import (
	"encoding/json"
	"testing"
	"time"

	"nodebridge/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTaskRequest(t *testing.T) {
	p := &CreateTaskParams{
		List: "901",
		Name: "Call back",
		AdditionalFields: CreateTaskFields{
			Assignees:    []int{7, 8},
			Content:      "**bold**",
			DueDate:      "2024-01-02",
			DueDateTime:  true,
			StartDate:    "2024-01-01T09:30:00Z",
			NotifyAll:    true,
			ParentID:     "abc",
			Priority:     2,
			Status:       "open",
			Tags:         []string{"vip"},
			TimeEstimate: 90,
		},
	}

	task, err := BuildTaskRequest(p)
	require.NoError(t, err)

	assert.Equal(t, "Call back", task.Name)
	assert.Equal(t, "**bold**", task.Content)
	assert.Empty(t, task.MarkdownContent)
	assert.Equal(t, []int{7, 8}, task.Assignees)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), task.DueDate)
	assert.True(t, task.DueDateTime)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC).UnixMilli(), task.StartDate)
	assert.Equal(t, "abc", task.Parent)
	assert.Equal(t, 2, task.Priority)
	assert.Equal(t, int64(90*60*1000), task.TimeEstimate)
	assert.Nil(t, task.CustomFields)
}

func TestBuildTaskRequest_MarkdownContent(t *testing.T) {
	task, err := BuildTaskRequest(&CreateTaskParams{
		List: "1",
		Name: "n",
		AdditionalFields: CreateTaskFields{
			Content:         "# Title",
			MarkdownContent: true,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, task.Content)
	assert.Equal(t, "# Title", task.MarkdownContent)
}

func TestBuildTaskRequest_CustomFields(t *testing.T) {
	task, err := BuildTaskRequest(&CreateTaskParams{
		List: "1",
		Name: "n",
		AdditionalFields: CreateTaskFields{
			IsDateTime: true,
			CustomFieldsText: FieldValues{Values: []FieldValue{
				{FieldID: "date-field", FieldValue: 1704153600000},
			}},
			CustomFieldsOptions: FieldValues{Values: []FieldValue{
				{FieldID: "dropdown", FieldValue: "opt-1"},
			}},
		},
	})
	require.NoError(t, err)

	body, err := json.Marshal(task.CustomFields)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id": "date-field", "value": 1704153600000, "value_options": {"time": true}},
		{"id": "dropdown", "value": "opt-1"}
	]`, string(body))
}

func TestBuildTaskRequest_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params CreateTaskParams
	}{
		{name: "missing list", params: CreateTaskParams{Name: "n"}},
		{name: "missing name", params: CreateTaskParams{List: "1"}},
		{name: "priority too high", params: CreateTaskParams{List: "1", Name: "n", AdditionalFields: CreateTaskFields{Priority: 5}}},
		{name: "negative priority", params: CreateTaskParams{List: "1", Name: "n", AdditionalFields: CreateTaskFields{Priority: -1}}},
		{name: "bad due date", params: CreateTaskParams{List: "1", Name: "n", AdditionalFields: CreateTaskFields{DueDate: "tomorrow"}}},
		{name: "negative estimate", params: CreateTaskParams{List: "1", Name: "n", AdditionalFields: CreateTaskFields{TimeEstimate: -5}}},
		{
			name: "custom field without id",
			params: CreateTaskParams{List: "1", Name: "n", AdditionalFields: CreateTaskFields{
				CustomFieldsText: FieldValues{Values: []FieldValue{{FieldValue: "x"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTaskRequest(&tt.params)
			require.Error(t, err)
			assert.Equal(t, common.KindValidation, common.Kind(err))
		})
	}
}

func TestParseDate(t *testing.T) {
	ms, err := parseDate("due_date", "")
	require.NoError(t, err)
	assert.Zero(t, ms)

	ms, err = parseDate("due_date", "2024-03-04 05:06:07")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC).UnixMilli(), ms)
}
