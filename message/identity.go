package message

import (
	"strconv"
	"strings"

	"github.com/aura-studio/message-adapter/jsonpath"
	"github.com/aura-studio/message-adapter/template"
	"github.com/tidwall/gjson"
)

// UpdateIdentity stamps the running task into e: cumulus_meta.task,
// message_source, id, and a meta.workflow_tasks entry.
func UpdateIdentity(e Event, c Context) (Event, error) {
	var err error
	if !e.Get(FieldCumulusMeta).IsObject() {
		if e, err = e.With(FieldCumulusMeta, []byte(`{}`)); err != nil {
			return Event{}, err
		}
	}

	if name := c.TaskName(); name != "" {
		if e, err = e.WithString(FieldCumulusMeta+".task", name); err != nil {
			return Event{}, err
		}
	}

	source := e.Source()
	if source == "" {
		source = SourceLocal
		if e, err = e.WithString(FieldCumulusMeta+".message_source", source); err != nil {
			return Event{}, err
		}
	}

	execName := e.Lookup(FieldCumulusMeta + ".execution_name").String()
	switch {
	case source == SourceSFN && execName != "":
		id := execName
		if i := strings.LastIndex(execName, "__"); i >= 0 {
			id = execName[i+2:]
		}
		if e, err = e.WithString(FieldCumulusMeta+".id", id); err != nil {
			return Event{}, err
		}
	case !e.Lookup(FieldCumulusMeta+".id").Exists() && execName != "":
		if e, err = e.WithString(FieldCumulusMeta+".id", execName); err != nil {
			return Event{}, err
		}
	}

	if !c.IsEmpty() && e.Get(FieldMeta).IsObject() {
		if e, err = appendWorkflowTask(e, c); err != nil {
			return Event{}, err
		}
	}
	return e, nil
}

func appendWorkflowTask(e Event, c Context) (Event, error) {
	tasks := e.Lookup(FieldMeta + ".workflow_tasks")
	index := 0
	if tasks.IsObject() {
		tasks.ForEach(func(_, _ gjson.Result) bool {
			index++
			return true
		})
	}

	entry := []byte(`{}`)
	var err error
	for _, kv := range [][2]string{{"name", c.TaskName()}, {"version", c.FunctionVersion}, {"arn", c.ResourceArn()}} {
		if entry, err = jsonpath.Assign(entry, jsonpath.Keys(kv[0]), template.Quote(kv[1])); err != nil {
			return Event{}, err
		}
	}

	return e.Assign(jsonpath.Keys(FieldMeta, "workflow_tasks", strconv.Itoa(index)), entry)
}
