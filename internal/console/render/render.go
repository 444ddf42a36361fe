// Package render prints view state to a terminal as tables, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/autopeer-io/patrolctl/internal/console/aggregate"
	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/internal/console/view"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Printer writes to one writer in one format.
type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// encode writes v as JSON or YAML. It reports false in table mode.
func (p *Printer) encode(v any) (bool, error) {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func (p *Printer) println(a ...any) error {
	_, err := fmt.Fprintln(p.w, a...)
	return err
}

func newTable() *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = 60
	t.Wrap = true
	return t
}

// Message prints an inline view message.
func (p *Printer) Message(msg string) error {
	if ok, err := p.encode(map[string]string{"message": msg}); ok {
		return err
	}
	return p.println(msg)
}

// Vehicles prints the fleet overview.
func (p *Printer) Vehicles(vehicles []model.Vehicle) error {
	if ok, err := p.encode(vehicles); ok {
		return err
	}
	if len(vehicles) == 0 {
		return p.println(view.MsgNoVehicles)
	}

	t := newTable()
	t.AddRow("ID", "NAME", "MODEL", "STATE", "BATTERY", "POSITION")
	for i := range vehicles {
		v := &vehicles[i]
		status, ok := v.Status()
		if !ok {
			t.AddRow(v.ID, v.Name, v.Model, "-", "-", "-")
			continue
		}
		t.AddRow(v.ID, v.Name, v.Model, status.State, battery(status.Battery), position(status.Position))
	}
	return p.println(t)
}

// Vehicle prints one vehicle header.
func (p *Printer) Vehicle(v *model.Vehicle) error {
	if ok, err := p.encode(v); ok {
		return err
	}

	t := newTable()
	t.AddRow("ID:", v.ID)
	t.AddRow("Name:", v.Name)
	t.AddRow("Model:", v.Model)
	if status, ok := v.Status(); ok {
		t.AddRow("State:", status.State)
		t.AddRow("Battery:", battery(status.Battery))
		t.AddRow("Position:", position(status.Position))
		t.AddRow("Reported:", status.ReportedAt().UTC().Format("2006-01-02 15:04:05Z"))
	} else {
		t.AddRow("State:", "no report yet")
	}
	return p.println(t)
}

// Logs prints decision logs.
func (p *Printer) Logs(page *model.DecisionLogPage) error {
	if ok, err := p.encode(page); ok {
		return err
	}
	if len(page.Logs) == 0 {
		return p.println(view.MsgNoDecisionLogs)
	}

	t := newTable()
	t.AddRow("ID", "VEHICLE", "TIME", "ACTION", "CONFIDENCE", "REASON")
	for _, l := range page.Logs {
		t.AddRow(l.ID, l.VehicleID, l.Timestamp, actionLabel(l.Decision.Action),
			fmt.Sprintf("%.1f%%", l.Decision.Confidence*100), l.Decision.Reason)
	}
	if err := p.println(t); err != nil {
		return err
	}
	if page.Pagination != nil {
		return p.println(fmt.Sprintf("page %d/%d, %d logs in total",
			page.Pagination.Page, page.Pagination.TotalPages, page.Total))
	}
	return p.println(fmt.Sprintf("%d logs in total", page.Total))
}

// Stats prints action counts with their share.
func (p *Printer) Stats(ac *aggregate.ActionCounts) error {
	if ok, err := p.encode(ac); ok {
		return err
	}
	if ac.Len() == 0 {
		return p.println("No decisions recorded.")
	}

	t := newTable()
	t.AddRow("ACTION", "COUNT", "SHARE")
	ac.Each(func(a model.Action, n int) {
		t.AddRow(actionLabel(a), n, fmt.Sprintf("%.1f%%", ac.Share(a)*100))
	})
	t.AddRow("TOTAL", ac.Total(), "")
	return p.println(t)
}

type dashboardDoc struct {
	Vehicles      []model.Vehicle         `json:"vehicles,omitempty" yaml:"vehicles,omitempty"`
	VehiclesError string                  `json:"vehicles_error,omitempty" yaml:"vehicles_error,omitempty"`
	Stats         *aggregate.ActionCounts `json:"stats,omitempty" yaml:"stats,omitempty"`
	Chart         *aggregate.Series       `json:"chart,omitempty" yaml:"chart,omitempty"`
	StatsError    string                  `json:"stats_error,omitempty" yaml:"stats_error,omitempty"`
}

// Dashboard prints both dashboard panels. A failed panel prints its message.
func (p *Printer) Dashboard(st view.DashboardState) error {
	doc := dashboardDoc{
		Vehicles:      st.Vehicles,
		VehiclesError: st.VehiclesError,
		Stats:         st.Stats,
		StatsError:    st.StatsError,
	}
	if st.Stats != nil {
		chart := st.Stats.Chart()
		doc.Chart = &chart
	}
	if ok, err := p.encode(doc); ok {
		return err
	}

	if err := p.println("Vehicles Overview"); err != nil {
		return err
	}
	if st.VehiclesError != "" {
		if err := p.println(st.VehiclesError); err != nil {
			return err
		}
	} else if err := p.Vehicles(st.Vehicles); err != nil {
		return err
	}

	if err := p.println("\nDecision Statistics"); err != nil {
		return err
	}
	if st.StatsError != "" {
		return p.println(st.StatsError)
	}
	if st.Stats == nil {
		return nil
	}
	return p.Stats(st.Stats)
}

type detailDoc struct {
	Vehicle *model.Vehicle          `json:"vehicle,omitempty" yaml:"vehicle,omitempty"`
	Logs    []model.DecisionLog     `json:"logs" yaml:"logs"`
	Total   int                     `json:"total" yaml:"total"`
	Stats   *aggregate.ActionCounts `json:"stats,omitempty" yaml:"stats,omitempty"`
	Error   string                  `json:"error,omitempty" yaml:"error,omitempty"`
}

// VehicleDetail prints the detail page.
func (p *Printer) VehicleDetail(st view.VehicleDetailState) error {
	if ok, err := p.encode(detailDoc{Vehicle: st.Vehicle, Logs: st.Logs, Total: st.Total, Stats: st.Stats, Error: st.Error}); ok {
		return err
	}
	if st.Error != "" {
		return p.println(st.Error)
	}
	if st.Vehicle == nil {
		return p.println(view.MsgVehicleNotFound)
	}

	if err := p.Vehicle(st.Vehicle); err != nil {
		return err
	}
	if err := p.println("\nDecision Logs"); err != nil {
		return err
	}
	return p.Logs(&model.DecisionLogPage{Logs: st.Logs, Total: st.Total})
}

// Telemetry prints a telemetry history.
func (p *Printer) Telemetry(points []model.TelemetryPoint) error {
	if ok, err := p.encode(points); ok {
		return err
	}
	if len(points) == 0 {
		return p.println("No telemetry in range.")
	}

	t := newTable()
	t.AddRow("TIME", "STATE", "BATTERY", "POSITION")
	for _, pt := range points {
		t.AddRow(pt.Timestamp.UTC().Format("2006-01-02 15:04:05Z"), pt.State, battery(pt.Battery), position(pt.Position))
	}
	return p.println(t)
}

// TelemetryUpdate prints one live update. JSON output is one object per line.
func (p *Printer) TelemetryUpdate(u model.TelemetryUpdate) error {
	switch p.format {
	case FormatJSON:
		return json.NewEncoder(p.w).Encode(u)
	case FormatYAML:
		if _, err := p.encode([]model.TelemetryUpdate{u}); err != nil {
			return err
		}
		return nil
	}
	return p.println(fmt.Sprintf("%s  %-10s %-12s battery=%s pos=%s",
		u.ReportedAt().UTC().Format("15:04:05"), u.VehicleID, u.State, battery(u.Battery), position(u.Position)))
}

// Receipt prints a queued command.
func (p *Printer) Receipt(r *model.CommandReceipt) error {
	if ok, err := p.encode(r); ok {
		return err
	}
	return p.println(fmt.Sprintf("command %s %s", r.CommandID, r.Status))
}

func battery(b float64) string {
	return fmt.Sprintf("%.0f%%", b)
}

func position(pos model.Position) string {
	return fmt.Sprintf("%.5f,%.5f", pos.Lat, pos.Lng)
}

func actionLabel(a model.Action) string {
	switch a.Kind() {
	case model.ActionPickup, model.ActionSkip:
		return string(a)
	case model.ActionUnknown:
		if a == "" {
			return "(none)"
		}
		return string(a) + "?"
	}
	return string(a)
}
