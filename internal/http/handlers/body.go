package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// object is a decoded JSON request body. Keys are kept raw so that absent,
// null and wrongly typed fields can be told apart.
type object map[string]json.RawMessage

// bindObject decodes the body as a JSON object and rejects keys outside
// allowed. It writes the error response and returns false on failure.
func bindObject(c *gin.Context, allowed ...string) (object, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "Request body too large.")
			return nil, false
		}
		badRequest(c, msgInvalidJSON)
		return nil, false
	}

	var obj object
	if len(bytes.TrimSpace(data)) == 0 {
		obj = object{}
	} else if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		badRequest(c, msgInvalidJSON)
		return nil, false
	}

	if msg := unexpectedKeys(obj, allowed); msg != "" {
		badRequest(c, msg)
		return nil, false
	}
	return obj, true
}

func unexpectedKeys(obj object, allowed []string) string {
	var extra []string
	for k := range obj {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			extra = append(extra, k)
		}
	}
	switch len(extra) {
	case 0:
		return ""
	case 1:
		return "Unexpected key: " + extra[0]
	}
	sort.Strings(extra)
	return "Unexpected keys: " + strings.Join(extra, ", ")
}

// has reports whether key is present, null included.
func (o object) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o object) isNull(key string) bool {
	return string(bytes.TrimSpace(o[key])) == "null"
}

func requiredMsg(key string) string { return key + " is required." }
func invalidMsg(key string) string  { return "Invalid " + key + "." }

// str decodes a JSON string.
func (o object) str(key string) (string, bool) {
	var s string
	if err := json.Unmarshal(o[key], &s); err != nil || o.isNull(key) {
		return "", false
	}
	return s, true
}

// number decodes a JSON number.
func (o object) number(key string) (float64, bool) {
	var f float64
	if err := json.Unmarshal(o[key], &f); err != nil || o.isNull(key) {
		return 0, false
	}
	return f, true
}

// integer decodes a JSON number without a fractional part.
func (o object) integer(key string) (int, bool) {
	f, ok := o.number(key)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// id decodes a non-negative integer identifier.
func (o object) id(key string) (uint, bool) {
	n, ok := o.integer(key)
	if !ok || n < 0 {
		return 0, false
	}
	return uint(n), true
}

// requiredString, requiredNumber, requiredInt and requiredID return the
// field or the client message to answer with.
func (o object) requiredString(key string) (string, string) {
	if !o.has(key) {
		return "", requiredMsg(key)
	}
	s, ok := o.str(key)
	if !ok {
		return "", invalidMsg(key)
	}
	return s, ""
}

func (o object) requiredNumber(key string) (float64, string) {
	if !o.has(key) {
		return 0, requiredMsg(key)
	}
	f, ok := o.number(key)
	if !ok {
		return 0, invalidMsg(key)
	}
	return f, ""
}

func (o object) requiredInt(key string) (int, string) {
	if !o.has(key) {
		return 0, requiredMsg(key)
	}
	n, ok := o.integer(key)
	if !ok {
		return 0, invalidMsg(key)
	}
	return n, ""
}

func (o object) requiredID(key string) (uint, string) {
	if !o.has(key) {
		return 0, requiredMsg(key)
	}
	n, ok := o.id(key)
	if !ok {
		return 0, invalidMsg(key)
	}
	return n, ""
}

// optionalString, optionalNumber, optionalInt and optionalID return nil when
// the key is absent. null is invalid for them.
func (o object) optionalString(key string) (*string, string) {
	if !o.has(key) {
		return nil, ""
	}
	s, ok := o.str(key)
	if !ok {
		return nil, invalidMsg(key)
	}
	return &s, ""
}

func (o object) optionalNumber(key string) (*float64, string) {
	if !o.has(key) {
		return nil, ""
	}
	f, ok := o.number(key)
	if !ok {
		return nil, invalidMsg(key)
	}
	return &f, ""
}

func (o object) optionalInt(key string) (*int, string) {
	if !o.has(key) {
		return nil, ""
	}
	n, ok := o.integer(key)
	if !ok {
		return nil, invalidMsg(key)
	}
	return &n, ""
}

func (o object) optionalID(key string) (*uint, string) {
	if !o.has(key) {
		return nil, ""
	}
	n, ok := o.id(key)
	if !ok {
		return nil, invalidMsg(key)
	}
	return &n, ""
}

// nullableString accepts a string or null. set is false when the key is
// absent.
func (o object) nullableString(key string) (val *string, set bool, msg string) {
	if !o.has(key) {
		return nil, false, ""
	}
	if o.isNull(key) {
		return nil, true, ""
	}
	s, ok := o.str(key)
	if !ok {
		return nil, true, invalidMsg(key)
	}
	return &s, true, ""
}

