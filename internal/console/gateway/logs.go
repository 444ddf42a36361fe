package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/autopeer-io/patrolctl/internal/console/model"
)

// PageOption narrows a paginated listing.
type PageOption func(q pageQuery) pageQuery

type pageQuery struct {
	page     int
	pageSize int
}

// WithPage requests the 1-based page of the given size. The backend clamps
// sizes outside 1..100.
func WithPage(page, pageSize int) PageOption {
	return func(q pageQuery) pageQuery {
		q.page, q.pageSize = page, pageSize
		return q
	}
}

// logPage accepts both listing shapes the backend produces:
//
//	{"logs": [...], "total": n}
//	{"data": [...], "pagination": {"total": n, ...}}
type logPage struct {
	Logs       []model.DecisionLog `json:"logs"`
	Data       []model.DecisionLog `json:"data"`
	Total      *int                `json:"total"`
	Pagination *model.Pagination   `json:"pagination"`
}

func (p *logPage) normalize() *model.DecisionLogPage {
	logs := p.Logs
	if logs == nil {
		logs = p.Data
	}
	if logs == nil {
		logs = []model.DecisionLog{}
	}

	out := &model.DecisionLogPage{Logs: logs, Total: len(logs), Pagination: p.Pagination}
	switch {
	case p.Total != nil:
		out.Total = *p.Total
	case p.Pagination != nil:
		out.Total = p.Pagination.Total
	}
	return out
}

func decodeLogPage(op string, raw []byte) (*model.DecisionLogPage, error) {
	var page logPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, &ServerError{Op: op, StatusCode: http.StatusOK, Message: "invalid response body", Err: err}
	}
	return page.normalize(), nil
}

// ListDecisionLogsForVehicle returns the decision logs of one vehicle.
func (c *Client) ListDecisionLogsForVehicle(ctx context.Context, id string, opts ...PageOption) (*model.DecisionLogPage, error) {
	const op = "list_vehicle_decision_logs"

	if id == "" {
		return nil, &RequestSetupError{Op: op, Message: "vehicle id is required"}
	}

	var q pageQuery
	for _, opt := range opts {
		q = opt(q)
	}
	u := c.endpoint("vehicles", id, "decision-logs")
	if q.page > 0 || q.pageSize > 0 {
		values := u.Query()
		if q.page > 0 {
			values.Set("page", strconv.Itoa(q.page))
		}
		if q.pageSize > 0 {
			values.Set("pageSize", strconv.Itoa(q.pageSize))
		}
		u.RawQuery = values.Encode()
	}

	raw, err := c.do(ctx, call{op: op, method: http.MethodGet, url: u})
	if err != nil {
		return nil, err
	}
	return decodeLogPage(op, raw)
}

// ListAllDecisionLogs returns the fleet-wide decision logs.
func (c *Client) ListAllDecisionLogs(ctx context.Context) (*model.DecisionLogPage, error) {
	const op = "list_decision_logs"

	raw, err := c.do(ctx, call{op: op, method: http.MethodGet, url: c.endpoint("decision-logs")})
	if err != nil {
		return nil, err
	}
	return decodeLogPage(op, raw)
}
