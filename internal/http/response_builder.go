package http

import (
	"encoding/json"
	"net/http"
	"time"

	"saoke/internal/aggregate"
	"saoke/internal/core"
	"saoke/internal/log"
	"saoke/internal/middleware/trace"
	"saoke/internal/parser"
	"saoke/internal/services"
	"saoke/internal/table"
)

type summaryResponse struct {
	RunID    string       `json:"run_id"`
	Source   string       `json:"source"`
	LoadedAt time.Time    `json:"loaded_at"`
	Bytes    int          `json:"bytes"`
	Count    int          `json:"count"`
	Total    int64        `json:"total"`
	Mean     *float64     `json:"mean"`
	Max      int64        `json:"max"`
	Min      int64        `json:"min"`
	Display  summaryText  `json:"display"`
	Parse    parser.Stats `json:"parse"`
	Binned   int          `json:"binned"`
}

type summaryText struct {
	Count string `json:"count"`
	Total string `json:"total"`
	Mean  string `json:"mean"`
	Max   string `json:"max"`
	Min   string `json:"min"`
	Size  string `json:"size"`
}

func newSummaryResponse(res *services.Result) summaryResponse {
	s := res.Summary
	out := summaryResponse{
		RunID:    res.RunID,
		Source:   res.Source,
		LoadedAt: res.StartedAt.Add(res.Duration),
		Bytes:    res.Bytes,
		Count:    s.Count,
		Total:    s.Total,
		Max:      s.Max,
		Min:      s.Min,
		Parse:    res.ParseStats,
		Binned:   aggregate.Binned(res.Buckets),
		Display: summaryText{
			Count: core.FormatNumber(int64(s.Count)),
			Total: core.FormatMoney(float64(s.Total)),
			Mean:  "-",
			Max:   core.FormatMoney(float64(s.Max)),
			Min:   core.FormatMoney(float64(s.Min)),
			Size:  core.FormatSize(float64(res.Bytes)),
		},
	}
	if !s.Empty() {
		mean := s.Mean
		out.Mean = &mean
		out.Display.Mean = core.FormatMoney(mean)
	}
	return out
}

type recordResponse struct {
	Date      string `json:"date"`
	DocNumber string `json:"docNumber"`
	Money     int64  `json:"money"`
	RawMoney  string `json:"rawMoney"`
	MoneyOK   bool   `json:"moneyOk"`
	Display   string `json:"display"`
	Detail    string `json:"detail"`
	Page      string `json:"page"`
}

type recordsResponse struct {
	Total    int              `json:"total"`
	Filtered int              `json:"filtered"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
	Pages    int              `json:"pages"`
	Sort     string           `json:"sort"`
	Dir      string           `json:"dir"`
	Records  []recordResponse `json:"records"`
}

func newRecordsResponse(q table.Query, p table.Page) recordsResponse {
	out := recordsResponse{
		Total:    p.Total,
		Filtered: p.Filtered,
		Page:     p.Page,
		Size:     p.Size,
		Sort:     string(q.SortBy),
		Dir:      "asc",
		Records:  make([]recordResponse, 0, len(p.Records)),
	}
	if q.Desc {
		out.Dir = "desc"
	}
	if p.Size > 0 {
		out.Pages = (p.Filtered + p.Size - 1) / p.Size
	}
	for _, r := range p.Records {
		out.Records = append(out.Records, recordResponse{
			Date:      r.Date,
			DocNumber: r.DocNumber,
			Money:     r.Amount.Units,
			RawMoney:  r.RawMoney,
			MoneyOK:   r.AmountOK,
			Display:   core.FormatMoney(float64(r.Amount.Units)),
			Detail:    r.Detail,
			Page:      r.Page,
		})
	}
	return out
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg, RequestID: w.Header().Get(trace.RequestIDHeader)})
}
