package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"nodebridge/internal/common"
	"nodebridge/internal/domain/execution"
)

// OptionParams are the already-selected parameters a lookup depends on.
type OptionParams struct {
	Team     string `json:"team"`
	Space    string `json:"space"`
	Folder   string `json:"folder"`
	List     string `json:"list"`
	Task     string `json:"task"`
	Archived bool   `json:"archived"`
}

type optionLoader func(ctx context.Context, api API, p OptionParams) ([]execution.Option, error)

var optionLoaders = map[string]optionLoader{
	"getTeams":                    loadTeams,
	"getSpaces":                   loadSpaces,
	"getFolders":                  loadFolders,
	"getLists":                    loadLists,
	"getFolderlessLists":          loadFolderlessLists,
	"getAssignees":                loadAssignees,
	"getTags":                     loadTags,
	"getTimeEntryTags":            loadTimeEntryTags,
	"getStatuses":                 loadStatuses,
	"getTasks":                    loadTasks,
	"getCustomFields":             loadCustomFields,
	"getCustomFieldsOptions":      loadCustomFieldsOptions,
	"getCustomFieldsOptionsValue": loadCustomFieldsOptionsValue,
}

type namedEntity struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

func namedOptions(entities []namedEntity) []execution.Option {
	options := make([]execution.Option, 0, len(entities))
	for _, e := range entities {
		options = append(options, execution.Option{Name: e.Name, Value: e.ID})
	}
	return options
}

func requireParam(name, value string) error {
	if value == "" {
		return common.NewValidationError(name + " is required")
	}
	return nil
}

func loadTeams(ctx context.Context, api API, _ OptionParams) ([]execution.Option, error) {
	var resp struct {
		Teams []namedEntity `json:"teams"`
	}
	if err := api.Get(ctx, "/team", nil, &resp); err != nil {
		return nil, err
	}
	return namedOptions(resp.Teams), nil
}

func loadSpaces(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("team", p.Team); err != nil {
		return nil, err
	}
	var resp struct {
		Spaces []namedEntity `json:"spaces"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/team/%s/space", url.PathEscape(p.Team)), nil, &resp); err != nil {
		return nil, err
	}
	return namedOptions(resp.Spaces), nil
}

func loadFolders(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("space", p.Space); err != nil {
		return nil, err
	}
	var resp struct {
		Folders []namedEntity `json:"folders"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/space/%s/folder", url.PathEscape(p.Space)), nil, &resp); err != nil {
		return nil, err
	}
	return namedOptions(resp.Folders), nil
}

func loadLists(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("folder", p.Folder); err != nil {
		return nil, err
	}
	var resp struct {
		Lists []namedEntity `json:"lists"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/folder/%s/list", url.PathEscape(p.Folder)), nil, &resp); err != nil {
		return nil, err
	}
	return namedOptions(resp.Lists), nil
}

func loadFolderlessLists(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("space", p.Space); err != nil {
		return nil, err
	}
	var resp struct {
		Lists []namedEntity `json:"lists"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/space/%s/list", url.PathEscape(p.Space)), nil, &resp); err != nil {
		return nil, err
	}
	return namedOptions(resp.Lists), nil
}

// loadAssignees lists the members of the selected list, or of the selected
// task when no list is chosen. With neither it returns no options.
func loadAssignees(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	var path string
	switch {
	case p.List != "":
		path = fmt.Sprintf("/list/%s/member", url.PathEscape(p.List))
	case p.Task != "":
		path = fmt.Sprintf("/task/%s/member", url.PathEscape(p.Task))
	default:
		return []execution.Option{}, nil
	}

	var resp struct {
		Members []struct {
			ID       any    `json:"id"`
			Username string `json:"username"`
		} `json:"members"`
	}
	if err := api.Get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	options := make([]execution.Option, 0, len(resp.Members))
	for _, m := range resp.Members {
		options = append(options, execution.Option{Name: m.Username, Value: m.ID})
	}
	return options, nil
}

// loadTags lists space tags. Tags are referenced by name, so the name is also the value.
func loadTags(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("space", p.Space); err != nil {
		return nil, err
	}
	var resp struct {
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/space/%s/tag", url.PathEscape(p.Space)), nil, &resp); err != nil {
		return nil, err
	}

	options := make([]execution.Option, 0, len(resp.Tags))
	for _, t := range resp.Tags {
		options = append(options, execution.Option{Name: t.Name, Value: t.Name})
	}
	return options, nil
}

// loadTimeEntryTags lists time entry tags. The value is the whole tag object
// serialized as compact JSON, which is what time entry calls expect.
func loadTimeEntryTags(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("team", p.Team); err != nil {
		return nil, err
	}
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/team/%s/time_entries/tags", url.PathEscape(p.Team)), nil, &resp); err != nil {
		return nil, err
	}

	options := make([]execution.Option, 0, len(resp.Data))
	for _, raw := range resp.Data {
		var tag struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &tag); err != nil {
			return nil, fmt.Errorf("decoding time entry tag: %w", err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, fmt.Errorf("compacting time entry tag: %w", err)
		}
		options = append(options, execution.Option{Name: tag.Name, Value: compact.String()})
	}
	return options, nil
}

func loadStatuses(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("list", p.List); err != nil {
		return nil, err
	}
	var resp struct {
		Statuses []struct {
			Status string `json:"status"`
		} `json:"statuses"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/list/%s", url.PathEscape(p.List)), nil, &resp); err != nil {
		return nil, err
	}

	options := make([]execution.Option, 0, len(resp.Statuses))
	for _, s := range resp.Statuses {
		options = append(options, execution.Option{Name: s.Status, Value: s.Status})
	}
	return options, nil
}

func loadTasks(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	if err := requireParam("list", p.List); err != nil {
		return nil, err
	}
	query := url.Values{"archived": []string{strconv.FormatBool(p.Archived)}}
	var resp struct {
		Tasks []namedEntity `json:"tasks"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/list/%s/task", url.PathEscape(p.List)), query, &resp); err != nil {
		return nil, err
	}
	return namedOptions(resp.Tasks), nil
}

// Custom field types whose values are picked from predefined options.
const (
	fieldTypeDropDown = "drop_down"
	fieldTypeLabels   = "labels"
)

type customField struct {
	ID         any    `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	TypeConfig struct {
		Options []struct {
			ID    any    `json:"id"`
			Name  string `json:"name"`
			Label string `json:"label"`
		} `json:"options"`
	} `json:"type_config"`
}

func (f customField) hasOptions() bool {
	return f.Type == fieldTypeDropDown || f.Type == fieldTypeLabels
}

func listFields(ctx context.Context, api API, p OptionParams) ([]customField, error) {
	if err := requireParam("list", p.List); err != nil {
		return nil, err
	}
	var resp struct {
		Fields []customField `json:"fields"`
	}
	if err := api.Get(ctx, fmt.Sprintf("/list/%s/field", url.PathEscape(p.List)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

// loadCustomFields lists the free-form custom fields of a list.
func loadCustomFields(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	fields, err := listFields(ctx, api, p)
	if err != nil {
		return nil, err
	}
	options := make([]execution.Option, 0, len(fields))
	for _, f := range fields {
		if !f.hasOptions() {
			options = append(options, execution.Option{Name: f.Name, Value: f.ID})
		}
	}
	return options, nil
}

// loadCustomFieldsOptions lists the drop down and label custom fields of a list.
func loadCustomFieldsOptions(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	fields, err := listFields(ctx, api, p)
	if err != nil {
		return nil, err
	}
	options := make([]execution.Option, 0, len(fields))
	for _, f := range fields {
		if f.hasOptions() {
			options = append(options, execution.Option{Name: f.Name, Value: f.ID})
		}
	}
	return options, nil
}

// loadCustomFieldsOptionsValue lists every predefined option of every drop
// down and label field. Label options are named by their label.
func loadCustomFieldsOptionsValue(ctx context.Context, api API, p OptionParams) ([]execution.Option, error) {
	fields, err := listFields(ctx, api, p)
	if err != nil {
		return nil, err
	}
	var options []execution.Option
	for _, f := range fields {
		if !f.hasOptions() {
			continue
		}
		for _, o := range f.TypeConfig.Options {
			name := o.Name
			if f.Type == fieldTypeLabels {
				name = o.Label
			}
			options = append(options, execution.Option{Name: name, Value: o.ID})
		}
	}
	if options == nil {
		options = []execution.Option{}
	}
	return options, nil
}
