package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/tracker"
)

func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// actor returns the member id from MemberHeader, or 0 when absent.
func actor(r *http.Request) uint {
	id, err := strconv.ParseUint(r.Header.Get(MemberHeader), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func optionalID(q url.Values, key string) (*uint, error) {
	raw := q.Get(key)
	if raw == "" || raw == tracker.All {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	v := uint(id)
	return &v, nil
}

// listQuery reads filter criteria and ordering from the query string.
func listQuery(q url.Values) (tracker.Criteria, tracker.Order, error) {
	var c tracker.Criteria
	var err error
	if c.CategoryID, err = optionalID(q, "category"); err != nil {
		return c, tracker.Order{}, err
	}
	if c.SubcategoryID, err = optionalID(q, "subcategory"); err != nil {
		return c, tracker.Order{}, err
	}
	c.Status = q.Get("status")
	if c.Status != "" && c.Status != tracker.All && !model.ValidStatus(c.Status) {
		return c, tracker.Order{}, fmt.Errorf("unknown status %q", c.Status)
	}
	c.Priority = q.Get("priority")
	if c.Priority != "" && c.Priority != tracker.All && !model.ValidPriority(c.Priority) {
		return c, tracker.Order{}, fmt.Errorf("unknown priority %q", c.Priority)
	}
	c.Search = q.Get("q")
	o, err := tracker.ParseOrder(q.Get("sort"), q.Get("dir"))
	return c, o, err
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
