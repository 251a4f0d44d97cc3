package scheduler

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/google/uuid"
)

// maxLagDays bounds a lag so one corrupt entry cannot stall a pass.
const maxLagDays = 9999

// idLen is the length of a task id in its canonical UUID form.
const idLen = 36

var (
	exprRe   = regexp.MustCompile(`^(.+?)((?i:SF|SS|FF|FS))?(?:([+-])(\d+)[dD]?)?$`)
	suffixRe = regexp.MustCompile(`^((?i:SF|SS|FF|FS))?(?:([+-])(\d+)[dD]?)?$`)
	refRe    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Predecessor is one parsed dependency expression such as "2.1SF-1d".
type Predecessor struct {
	Raw     string
	TaskRef string
	Type    domain.LinkType
	LagDays int
	Err     error // non-nil when Raw is malformed
}

// Valid reports whether the expression parsed.
func (p Predecessor) Valid() bool { return p.Err == nil }

// Suffix returns the link type and lag text that follows the task reference,
// exactly as written.
func (p Predecessor) Suffix() string {
	raw := strings.TrimSpace(p.Raw)
	if !p.Valid() || !strings.HasPrefix(raw, p.TaskRef) {
		return ""
	}
	return raw[len(p.TaskRef):]
}

// String renders the expression in canonical form: FS links and zero lags
// are omitted.
func (p Predecessor) String() string {
	if !p.Valid() {
		return p.Raw
	}
	var b strings.Builder
	b.WriteString(p.TaskRef)
	if p.Type != domain.LinkFinishToStart {
		b.WriteString(string(p.Type))
	}
	if p.LagDays != 0 {
		fmt.Fprintf(&b, "%+dd", p.LagDays)
	}
	return b.String()
}

// ParsePredecessor decodes one expression. It never fails outright: a
// malformed expression comes back with Err set. A reference that starts
// with a task id takes the whole id, so digits or "ff" at the end of an id
// are never read as a lag or link type.
func ParsePredecessor(expr string) Predecessor {
	raw := strings.TrimSpace(expr)
	p := Predecessor{Raw: expr, Type: domain.LinkFinishToStart}

	var m []string
	if len(raw) >= idLen && uuid.Validate(raw[:idLen]) == nil {
		if sm := suffixRe.FindStringSubmatch(raw[idLen:]); sm != nil {
			m = append([]string{raw, raw[:idLen]}, sm[1:]...)
		}
	} else if em := exprRe.FindStringSubmatch(raw); em != nil && refRe.MatchString(em[1]) {
		m = em
	} else if em != nil {
		p.Err = fmt.Errorf("invalid predecessor %q: bad task reference", expr)
		return p
	}
	if m == nil {
		p.Err = fmt.Errorf("invalid predecessor %q", expr)
		return p
	}

	p.TaskRef = m[1]
	if m[2] != "" {
		p.Type = domain.LinkType(strings.ToUpper(m[2]))
	}
	if m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err != nil || n > maxLagDays {
			p.Err = fmt.Errorf("invalid predecessor %q: lag out of range", expr)
			return p
		}
		if m[3] == "-" {
			n = -n
		}
		p.LagDays = n
	}
	return p
}

// ParsePredecessors parses every entry of a normalized list.
func ParsePredecessors(list []string) []Predecessor {
	out := make([]Predecessor, 0, len(list))
	for _, s := range list {
		out = append(out, ParsePredecessor(s))
	}
	return out
}

// NormalizePredecessors turns a stored predecessor field into a list of
// non-blank expressions. It accepts nil, a list of strings, a decoded JSON
// array, a string holding a JSON array, or a legacy bare string separated by
// commas or semicolons.
func NormalizePredecessors(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return cleanList(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, scalarString(item))
		}
		return cleanList(items)
	case []byte:
		return normalizeString(string(v))
	case json.RawMessage:
		return normalizeString(string(v))
	case *string:
		if v == nil {
			return []string{}
		}
		return normalizeString(*v)
	case string:
		return normalizeString(v)
	default:
		return cleanList([]string{scalarString(v)})
	}
}

func normalizeString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return []string{}
	}
	if strings.HasPrefix(s, "[") {
		var items []any
		if err := json.Unmarshal([]byte(s), &items); err == nil {
			return NormalizePredecessors(items)
		}
	}
	return cleanList(strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }))
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RewriteRefs returns list with every task reference found in mapping
// replaced by its new value. Matching is by whole reference; link type and
// lag suffixes are kept as written. changed reports whether anything moved.
func RewriteRefs(list []string, mapping map[string]string) (out []string, changed bool) {
	out = make([]string, len(list))
	for i, s := range list {
		out[i] = s
		p := ParsePredecessor(s)
		if !p.Valid() {
			continue
		}
		if to, ok := mapping[p.TaskRef]; ok && to != p.TaskRef {
			out[i] = to + p.Suffix()
			changed = true
		}
	}
	return out, changed
}

// DropRefs removes entries whose task reference is in removed.
func DropRefs(list []string, removed map[string]bool) (out []string, changed bool) {
	out = make([]string, 0, len(list))
	for _, s := range list {
		p := ParsePredecessor(s)
		if p.Valid() && removed[p.TaskRef] {
			changed = true
			continue
		}
		out = append(out, s)
	}
	return out, changed
}
