package brightpearl

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Payload is a decoded JSON object returned by the API.
type Payload map[string]any

// Record is one normalized search row keyed by column name.
type Record map[string]any

// Response returns the "response" object of a payload, or an empty Payload.
func (p Payload) Response() Payload {
	if response, ok := asObject(p["response"]); ok {
		return response
	}

	return Payload{}
}

// Results returns the "results" list of a search response object. Typed
// slices such as [][]any or []Record are accepted as well as []any.
func (p Payload) Results() []any {
	results, _ := asList(p["results"])

	return results
}

// asList widens any slice to []any. Strings and byte slices are not lists.
func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case nil:
		return nil, false
	case []any:
		return list, true
	case []byte:
		return nil, false
	}

	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Slice {
		return nil, false
	}

	list := make([]any, value.Len())
	for i := range list {
		list[i] = value.Index(i).Interface()
	}

	return list, true
}

func asObject(v any) (Payload, bool) {
	switch obj := v.(type) {
	case Payload:
		return obj, true
	case map[string]any:
		return Payload(obj), true
	case Record:
		return Payload(obj), true
	default:
		return nil, false
	}
}

// Params holds query parameters. Values may be strings, numbers, booleans,
// string or int slices (comma-joined), or anything implementing fmt.Stringer.
// Nil values are skipped.
type Params map[string]any

// ToValues converts Params to url.Values.
func (p Params) ToValues() url.Values {
	values := url.Values{}

	for key, value := range p {
		if value == nil {
			continue
		}

		values.Set(key, formatParam(value))
	}

	return values
}

func formatParam(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ",")
	case []int:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}

		return strings.Join(parts, ",")
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Sort directions accepted by the search endpoints.
const (
	SortAscending  = "ASC"
	SortDescending = "DESC"
)

// DefaultPageSize is the page size used when none is given.
const DefaultPageSize = 100

// DefaultProductColumns returns the projection used for product listings
// when the caller gives none.
func DefaultProductColumns() []string {
	return []string{"productId", "SKU", "productName", "brandId", "productTypeId", "updatedOn"}
}

// SearchOptions are the parameters of a search endpoint call.
//
// FirstResult, when set, is sent instead of Page; the two are never sent
// together. Filters are passed through verbatim and win over the fields
// above on key collisions.
type SearchOptions struct {
	Columns     []string
	Sort        string // e.g. "updatedOn:DESC"
	PageSize    int
	Page        int // 1-based
	FirstResult *int
	Filters     Params
}

// ListOptions are the parameters of the List family of calls.
type ListOptions struct {
	PageSize int
	// Page is where List reads and where iteration starts. Defaults to 1.
	Page int
	// OrderBy is a column name, prefixed with "-" for descending order.
	OrderBy string
	// Columns overrides the resource's default projection. A nil slice
	// selects the default; an empty non-nil slice requests no projection.
	Columns []string
	Filters Params
}

// SortFromOrderBy translates "field" to "field:ASC" and "-field" to "field:DESC".
func SortFromOrderBy(orderBy string) string {
	if orderBy == "" {
		return ""
	}

	if field, ok := strings.CutPrefix(orderBy, "-"); ok {
		return field + ":" + SortDescending
	}

	return orderBy + ":" + SortAscending
}

// OrderNote is the body of an order note.
type OrderNote struct {
	Text     string `json:"text"     yaml:"text"`
	IsPublic bool   `json:"isPublic" yaml:"isPublic"`
}

// NewOrderNote returns a public note with the given text.
func NewOrderNote(text string) *OrderNote {
	return &OrderNote{Text: text, IsPublic: true}
}

// RateLimitInfo carries the throttling headers of the last response.
type RateLimitInfo struct {
	Remaining          *int          `json:"remaining,omitempty"            yaml:"remaining,omitempty"`
	NextThrottlePeriod time.Duration `json:"next_throttle_period,omitempty" yaml:"next_throttle_period,omitempty"`
	RetryAfter         time.Duration `json:"retry_after,omitempty"          yaml:"retry_after,omitempty"`
	ObservedAt         time.Time     `json:"observed_at"                    yaml:"observed_at"`
}
