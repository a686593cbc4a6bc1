package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"nodebridge/internal/common"
	"nodebridge/internal/domain/execution"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldCall struct {
	task   string
	field  string
	update FieldUpdate
}

type fakeAPI struct {
	createdIn  string
	created    *TaskRequest
	fieldCalls []fieldCall
	fieldErrAt int

	// responses maps a GET path to its JSON body.
	responses map[string]string
	queries   map[string]url.Values
}

func (f *fakeAPI) CreateTask(_ context.Context, listID string, task *TaskRequest) (any, error) {
	f.createdIn = listID
	f.created = task
	return map[string]any{"id": "t1", "name": task.Name}, nil
}

func (f *fakeAPI) SetCustomField(_ context.Context, taskID, fieldID string, update *FieldUpdate) (any, error) {
	f.fieldCalls = append(f.fieldCalls, fieldCall{task: taskID, field: fieldID, update: *update})
	if f.fieldErrAt > 0 && len(f.fieldCalls) == f.fieldErrAt {
		return nil, common.NewTransportError("clickup", 400, errors.New("Value is not valid"))
	}
	return map[string]any{}, nil
}

func (f *fakeAPI) Get(_ context.Context, path string, query url.Values, out any) error {
	if f.queries == nil {
		f.queries = map[string]url.Values{}
	}
	f.queries[path] = query
	body, ok := f.responses[path]
	if !ok {
		return common.NewTransportError("clickup", 404, errors.New("Route not found"))
	}
	return json.Unmarshal([]byte(body), out)
}

func newTestNode(api *fakeAPI) *Node {
	return NewNode(func(execution.Credentials) (API, error) { return api, nil })
}

func TestNode_Executor_Unknown(t *testing.T) {
	node := newTestNode(&fakeAPI{})

	_, err := node.Executor(context.Background(), "list", OperationCreate, execution.Credentials{})
	assert.Equal(t, common.KindUnknownResource, common.Kind(err))

	_, err = node.Executor(context.Background(), ResourceTask, "delete", execution.Credentials{})
	assert.Equal(t, common.KindUnknownOperation, common.Kind(err))
}

func TestNode_CreateTask(t *testing.T) {
	api := &fakeAPI{}
	fn, err := newTestNode(api).Executor(context.Background(), ResourceTask, OperationCreate, execution.Credentials{})
	require.NoError(t, err)

	out, err := fn(context.Background(), execution.Params{
		"list": "901",
		"name": "Call back",
		"additional_fields": map[string]any{
			"assignees":     []any{float64(7)},
			"priority":      "3",
			"time_estimate": float64(15),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "t1", "name": "Call back"}, out)

	assert.Equal(t, "901", api.createdIn)
	require.NotNil(t, api.created)
	assert.Equal(t, []int{7}, api.created.Assignees)
	assert.Equal(t, 3, api.created.Priority)
	assert.Equal(t, int64(15*60*1000), api.created.TimeEstimate)
}

func TestNode_SetCustomField(t *testing.T) {
	api := &fakeAPI{}
	fn, err := newTestNode(api).Executor(context.Background(), ResourceTask, OperationSetCustomField, execution.Credentials{})
	require.NoError(t, err)

	out, err := fn(context.Background(), execution.Params{
		"task": "t1",
		"field": map[string]any{
			"custom_fields_text": map[string]any{
				"values": []any{map[string]any{"field_id": "f-text", "field_value": "hello"}},
			},
			"custom_fields_options": map[string]any{
				"values": []any{map[string]any{"field_id": "f-drop", "field_value": "opt-2"}},
			},
		},
		"additional_fields": map[string]any{"is_date_time": true},
	})
	require.NoError(t, err)

	item, ok := out.(execution.Item)
	require.True(t, ok)
	assert.Equal(t, "OK", item["message"])
	assert.Len(t, item["response_data"], 2)

	require.Len(t, api.fieldCalls, 2)
	assert.Equal(t, fieldCall{task: "t1", field: "f-text", update: FieldUpdate{Value: "hello", ValueOptions: &ValueOptions{Time: true}}}, api.fieldCalls[0])
	assert.Equal(t, fieldCall{task: "t1", field: "f-drop", update: FieldUpdate{Value: "opt-2"}}, api.fieldCalls[1])
}

func TestNode_SetCustomField_Errors(t *testing.T) {
	t.Run("no fields", func(t *testing.T) {
		api := &fakeAPI{}
		fn, err := newTestNode(api).Executor(context.Background(), ResourceTask, OperationSetCustomField, execution.Credentials{})
		require.NoError(t, err)

		_, err = fn(context.Background(), execution.Params{"task": "t1"})
		assert.Equal(t, common.KindValidation, common.Kind(err))
		assert.Empty(t, api.fieldCalls)
	})

	t.Run("stops at the first failing field", func(t *testing.T) {
		api := &fakeAPI{fieldErrAt: 1}
		fn, err := newTestNode(api).Executor(context.Background(), ResourceTask, OperationSetCustomField, execution.Credentials{})
		require.NoError(t, err)

		_, err = fn(context.Background(), execution.Params{
			"task": "t1",
			"field": map[string]any{
				"custom_fields_text": map[string]any{
					"values": []any{
						map[string]any{"field_id": "a", "field_value": "1"},
						map[string]any{"field_id": "b", "field_value": "2"},
					},
				},
			},
		})
		assert.Equal(t, common.KindTransport, common.Kind(err))
		assert.Len(t, api.fieldCalls, 1)
	})
}

func TestNode_LoadOptions(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{
		"/team":                     `{"teams": [{"id": "1", "name": "Acme"}]}`,
		"/list/9/task":              `{"tasks": [{"id": "t1", "name": "First"}]}`,
		"/space/3/tag":              `{"tags": [{"name": "vip", "tag_fg": "#fff"}]}`,
		"/team/1/time_entries/tags": `{"data": [{"name": "billable", "creator": 5}]}`,
		"/list/9":                   `{"statuses": [{"status": "open"}, {"status": "done"}]}`,
		"/list/9/member":            `{"members": [{"id": 5, "username": "ana"}]}`,
		"/list/9/field": `{"fields": [
			{"id": "f1", "name": "Notes", "type": "text"},
			{"id": "f2", "name": "Stage", "type": "drop_down", "type_config": {"options": [{"id": "o1", "name": "Lead"}]}},
			{"id": "f3", "name": "Labels", "type": "labels", "type_config": {"options": [{"id": "o2", "label": "Hot"}]}}
		]}`,
	}}
	node := newTestNode(api)
	ctx := context.Background()
	creds := execution.Credentials{}

	options, err := node.LoadOptions(ctx, "getTeams", creds, execution.Params{})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "Acme", Value: "1"}}, options)

	options, err = node.LoadOptions(ctx, "getTasks", creds, execution.Params{"list": "9", "archived": true})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "First", Value: "t1"}}, options)
	assert.Equal(t, "true", api.queries["/list/9/task"].Get("archived"))

	options, err = node.LoadOptions(ctx, "getTags", creds, execution.Params{"space": "3"})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "vip", Value: "vip"}}, options)

	options, err = node.LoadOptions(ctx, "getTimeEntryTags", creds, execution.Params{"team": "1"})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "billable", Value: `{"name":"billable","creator":5}`}}, options)

	options, err = node.LoadOptions(ctx, "getStatuses", creds, execution.Params{"list": "9"})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "open", Value: "open"}, {Name: "done", Value: "done"}}, options)

	options, err = node.LoadOptions(ctx, "getAssignees", creds, execution.Params{"list": "9"})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "ana", Value: float64(5)}}, options)

	options, err = node.LoadOptions(ctx, "getAssignees", creds, execution.Params{})
	require.NoError(t, err)
	assert.Empty(t, options)

	options, err = node.LoadOptions(ctx, "getCustomFields", creds, execution.Params{"list": "9"})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "Notes", Value: "f1"}}, options)

	options, err = node.LoadOptions(ctx, "getCustomFieldsOptions", creds, execution.Params{"list": "9"})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "Stage", Value: "f2"}, {Name: "Labels", Value: "f3"}}, options)

	options, err = node.LoadOptions(ctx, "getCustomFieldsOptionsValue", creds, execution.Params{"list": "9"})
	require.NoError(t, err)
	assert.Equal(t, []execution.Option{{Name: "Lead", Value: "o1"}, {Name: "Hot", Value: "o2"}}, options)
}

func TestNode_LoadOptions_Errors(t *testing.T) {
	node := newTestNode(&fakeAPI{})
	ctx := context.Background()

	_, err := node.LoadOptions(ctx, "getGoals", execution.Credentials{}, execution.Params{})
	assert.Equal(t, common.KindUnknownOperation, common.Kind(err))

	_, err = node.LoadOptions(ctx, "getSpaces", execution.Credentials{}, execution.Params{})
	assert.Equal(t, common.KindValidation, common.Kind(err), "team is required")

	_, err = node.LoadOptions(ctx, "getFolders", execution.Credentials{}, execution.Params{"space": "3"})
	assert.Equal(t, common.KindTransport, common.Kind(err))
}
