// Package aggregate reduces decision logs to chart-ready statistics.
package aggregate

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/autopeer-io/patrolctl/internal/console/model"
)

// ActionCounts maps action labels to counts. Keys keep the order in which
// each label was first seen. It shares nothing with the logs it was built
// from. The zero value is an empty mapping.
type ActionCounts struct {
	keys   []model.Action
	counts map[model.Action]int
	total  int
}

// Aggregate counts logs by decision action.
func Aggregate(logs []model.DecisionLog) *ActionCounts {
	ac := &ActionCounts{counts: make(map[model.Action]int)}
	for i := range logs {
		ac.add(logs[i].Decision.Action)
	}
	return ac
}

func (ac *ActionCounts) add(a model.Action) {
	if _, seen := ac.counts[a]; !seen {
		ac.keys = append(ac.keys, a)
	}
	ac.counts[a]++
	ac.total++
}

// Keys returns the labels in first-seen order.
func (ac *ActionCounts) Keys() []model.Action {
	return append([]model.Action(nil), ac.keys...)
}

// Count returns the count of a, 0 when a never occurred.
func (ac *ActionCounts) Count(a model.Action) int {
	return ac.counts[a]
}

// Len returns the number of distinct labels.
func (ac *ActionCounts) Len() int { return len(ac.keys) }

// Total returns the number of aggregated logs.
func (ac *ActionCounts) Total() int { return ac.total }

// Each calls fn for every label in order.
func (ac *ActionCounts) Each(fn func(a model.Action, n int)) {
	for _, k := range ac.keys {
		fn(k, ac.counts[k])
	}
}

// Share returns the fraction of logs labelled a.
func (ac *ActionCounts) Share(a model.Action) float64 {
	if ac.total == 0 {
		return 0
	}
	return float64(ac.counts[a]) / float64(ac.total)
}

// Series is the input of a pie or bar chart.
type Series struct {
	Labels []string `json:"labels" yaml:"labels"`
	Data   []int    `json:"data" yaml:"data"`
}

// Chart returns the counts as parallel label and value slices.
func (ac *ActionCounts) Chart() Series {
	s := Series{Labels: make([]string, 0, len(ac.keys)), Data: make([]int, 0, len(ac.keys))}
	ac.Each(func(a model.Action, n int) {
		s.Labels = append(s.Labels, string(a))
		s.Data = append(s.Data, n)
	})
	return s
}

// MarshalJSON encodes an object whose keys keep first-seen order.
func (ac *ActionCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range ac.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(ac.counts[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes a mapping whose keys keep first-seen order.
func (ac *ActionCounts) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	ac.Each(func(a model.Action, n int) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(a)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n)},
		)
	})
	return node, nil
}
