package mockserver

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var resourceNames = []string{"organization", "department", "position", "task", "formtemplate"}

type record map[string]any

// collection keeps one resource's entities in insertion order.
type collection struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]record
}

func newCollection() *collection {
	return &collection{byID: make(map[string]record)}
}

func (c *collection) insert(r record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uid := r["Uid"].(string)
	c.order = append(c.order, uid)
	c.byID[uid] = r
}

func (c *collection) update(uid string, fields record, by string) (record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.byID[uid]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		if isSystemField(k) {
			continue
		}
		existing[k] = v
	}
	existing["UpdatedOn"] = time.Now().UTC().Format(time.RFC3339)
	existing["UpdatedBy"] = by
	return copyRecord(existing), true
}

func (c *collection) remove(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[uid]; !ok {
		return false
	}
	delete(c.byID, uid)
	for i, id := range c.order {
		if id == uid {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// page returns the filtered, sorted slice for one page plus the total match count.
func (c *collection) page(index, size int, sortBy, filter string) ([]record, int) {
	c.mu.RLock()
	matches := make([]record, 0, len(c.order))
	for _, uid := range c.order {
		r := c.byID[uid]
		if filter != "" {
			name, _ := r["Name"].(string)
			if !strings.Contains(strings.ToLower(name), strings.ToLower(filter)) {
				continue
			}
		}
		matches = append(matches, copyRecord(r))
	}
	c.mu.RUnlock()

	if sortBy != "" {
		sort.SliceStable(matches, func(i, j int) bool {
			a, _ := matches[i][sortBy].(string)
			b, _ := matches[j][sortBy].(string)
			return a < b
		})
	}

	total := len(matches)
	start := index * size
	if start >= total {
		return []record{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matches[start:end], total
}

type pageInput struct {
	PageIndex int     `json:"PageIndex" binding:"gte=0"`
	PageSize  int     `json:"PageSize" binding:"gt=0,lte=500"`
	SortBy    *string `json:"SortBy"`
	Filter    *string `json:"Filter"`
}

func (s *Server) listHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in pageInput
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid page request", nil)
			return
		}
		var sortBy, filter string
		if in.SortBy != nil {
			sortBy = *in.SortBy
		}
		if in.Filter != nil {
			filter = *in.Filter
		}

		records, total := s.entities[name].page(in.PageIndex, in.PageSize, sortBy, filter)
		page := gin.H{
			"PageIndex":    in.PageIndex,
			"PageSize":     in.PageSize,
			"TotalRecords": total,
			"Records":      records,
		}
		// organizations embed the page directly in Model; the rest wrap it in Result
		if name == "organization" {
			writeEnvelope(c, http.StatusOK, "Success", page)
			return
		}
		writeEnvelope(c, http.StatusOK, "Success", gin.H{"Result": page})
	}
}

func (s *Server) createHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in record
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
			return
		}
		if fields := validateRecord(name, in); len(fields) > 0 {
			writeValidationError(c, fields)
			return
		}

		by := c.GetString(ctxUserID)
		now := time.Now().UTC().Format(time.RFC3339)
		r := record{}
		for k, v := range in {
			if !isSystemField(k) {
				r[k] = v
			}
		}
		r["Uid"] = uuid.NewString()
		r["CreatedOn"] = now
		r["CreatedBy"] = by
		r["UpdatedOn"] = now
		r["UpdatedBy"] = by
		r["IsDeleted"] = 0
		r["IsActive"] = 1
		r["DeletedOn"] = nil
		r["OrgId"] = ""
		s.entities[name].insert(r)

		writeEnvelope(c, http.StatusCreated, "Created successfully", gin.H{"Entity": copyRecord(r)})
	}
}

func (s *Server) updateHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in record
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
			return
		}
		if fields := validateRecord(name, in); len(fields) > 0 {
			writeValidationError(c, fields)
			return
		}
		updated, ok := s.entities[name].update(c.Param("uid"), in, c.GetString(ctxUserID))
		if !ok {
			writeError(c, http.StatusNotFound, "NOT_FOUND", name+" not found", nil)
			return
		}
		writeEnvelope(c, http.StatusOK, "Updated successfully", gin.H{"Entity": updated})
	}
}

func (s *Server) deleteHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.entities[name].remove(c.Param("uid")) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", name+" not found", nil)
			return
		}
		writeEnvelope(c, http.StatusOK, "Deleted successfully", true)
	}
}

func validateRecord(name string, in record) map[string]string {
	fields := map[string]string{}
	if n, _ := in["Name"].(string); strings.TrimSpace(n) == "" {
		fields["Name"] = "This field is required"
	}
	if name == "position" {
		if st, ok := in["Status"].(string); ok && st != "" && st != "active" && st != "closed" {
			fields["Status"] = "Must be one of: active, closed"
		}
	}
	return fields
}

func isSystemField(k string) bool {
	switch k {
	case "Uid", "CreatedOn", "CreatedBy", "UpdatedOn", "UpdatedBy", "IsDeleted", "DeletedOn", "OrgId":
		return true
	}
	return false
}

func copyRecord(r record) record {
	out := make(record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
