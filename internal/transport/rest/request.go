package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// maxBodyBytes bounds request bodies. The largest legitimate body is a
// bulk order of a full partition.
const maxBodyBytes = 1 << 20

// decodeJSON reads r's body into dst and answers 400 on failure.
// Unknown fields are rejected so typos do not silently become no-ops.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		}
		return false
	}
	return true
}

// uuidParam reads a UUID path parameter and answers 400 when malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// partitionParam builds a partition from the projectID, laneKey and status
// path parameters. Lane keys may carry escaped characters from custom names.
func partitionParam(w http.ResponseWriter, r *http.Request) (domain.Partition, bool) {
	projectID, ok := uuidParam(w, r, "projectID")
	if !ok {
		return domain.Partition{}, false
	}

	raw, err := pathParam(r, "laneKey")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid laneKey")
		return domain.Partition{}, false
	}
	lane, err := domain.ParseLaneKey(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.Partition{}, false
	}

	status := domain.CardStatus(chi.URLParam(r, "status"))
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
		return domain.Partition{}, false
	}

	return domain.Partition{ProjectID: projectID, Lane: lane, Status: status}, true
}

// pathParam returns a path parameter decoded exactly once. chi matches
// against URL.RawPath when the client used a non-default escaping (such as
// %2F) and against the already decoded URL.Path otherwise.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

// queryInt reads an optional integer query parameter bounded to [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer in [%d, %d]", name, lo, hi)
	}
	return n, nil
}

// optionalDate is a JSON date field that tells "absent" from "null".
// Dates use the YYYY-MM-DD layout.
type optionalDate struct {
	Set   bool
	Value *time.Time
}

func (d *optionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if bytes.Equal(b, []byte("null")) {
		d.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a YYYY-MM-DD string")
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("date must be a YYYY-MM-DD string")
	}
	d.Value = &t
	return nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
