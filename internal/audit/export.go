package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"
)

const exportMaxRows = 5000

// ExportTimeline renders the filtered timeline as CSV, capped at
// exportMaxRows rows. Filters behave exactly as in Timeline; paging fields
// are ignored.
func (s *Service) ExportTimeline(ctx context.Context, filters TimelineFilters) ([]byte, error) {
	params := TimelineParams{
		FromAt:    toPgTime(filters.From),
		ToAt:      toPgTime(filters.To),
		ActorID:   optionalInt(filters.ActorID),
		Entity:    optionalText(filters.Entity),
		Action:    optionalText(filters.Action),
		LimitRows: exportMaxRows,
	}
	rows, err := s.repo.TimelineWindow(ctx, params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true
	if err := writer.Write([]string{"ID", "Actor", "Action", "Entity", "Entity ID", "Detail", "At"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		detail := ""
		if len(row.Detail) > 0 {
			if data, err := json.Marshal(row.Detail); err == nil {
				detail = string(data)
			}
		}
		record := []string{
			strconv.FormatInt(row.ID, 10),
			strconv.FormatInt(row.ActorID, 10),
			row.Action,
			row.Entity,
			row.EntityID,
			detail,
			row.At.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
