package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"clubschedule/pkg/config"
	apperrors "clubschedule/pkg/errors"
)

const dateLayout = "2006-01-02"

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractTimeRange reads from/to query parameters as RFC 3339 instants or
// YYYY-MM-DD dates. A date-only "to" is inclusive, so it is moved to the next midnight.
func ExtractTimeRange(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()

	from, _, err := parseInstant(query.Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid from parameter: " + query.Get("from"))
	}
	to, dateOnly, err := parseInstant(query.Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid to parameter: " + query.Get("to"))
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("from and to parameters are required")
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("from must be before to")
	}
	return from, to, nil
}

func parseInstant(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// DecodeJSON decodes a single JSON object from the request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.PayloadTooLarge(maxErr.Limit)
		case errors.Is(err, io.EOF):
			return apperrors.InvalidInput("request body is empty")
		default:
			return apperrors.InvalidInput(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	if dec.More() {
		return apperrors.InvalidInput("request body must contain a single JSON object")
	}
	return nil
}
