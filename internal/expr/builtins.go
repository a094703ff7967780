package expr

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/shopspring/decimal"
)

// Func is one built-in function: a fixed arity and its implementation.
// Per spec.md §4.2, a call with the wrong arity is fatal — Registry.Call
// enforces that uniformly so individual Funcs don't have to.
type Func struct {
	Arity int
	Fn    func(ctx *Context, args []string) (string, error)
}

// Registry is the expression engine's function dictionary: populated at
// process startup and read-only thereafter (spec.md §3/§5's "global
// singleton" lifecycle for the function table).
type Registry struct {
	funcs map[string]Func
	mu    sync.Mutex
	rng   *rand.Rand
}

// Call invokes the named function, checking arity first.
func (r *Registry) Call(name string, args []string, ctx *Context) (string, error) {
	f, ok := r.funcs[name]
	if !ok {
		return "", &EvalError{fmt.Sprintf("unknown function %q", name)}
	}
	if len(args) != f.Arity {
		return "", &EvalError{fmt.Sprintf("%s: expected %d argument(s), got %d", name, f.Arity, len(args))}
	}
	return f.Fn(ctx, args)
}

// SetSeed overrides the process-global RNG seed used by random(), per
// the -rseed global flag (spec.md §5).
func (r *Registry) SetSeed(seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng = rand.New(rand.NewSource(seed))
}

func (r *Registry) random() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// DefaultRegistry is the process-global function table every command
// binds its expression evaluations against, unless a test supplies its
// own (e.g. to pin random()/today()/now() for determinism).
var DefaultRegistry = NewRegistry()

// NewRegistry builds a fresh function table with the full built-in set
// of spec.md §4.2.
func NewRegistry() *Registry {
	r := &Registry{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	r.funcs = map[string]Func{
		"if":     {3, fnIf},
		"not":    {1, fnNot},
		"int":    {1, fnInt},
		"abs":    {1, fnAbs},
		"sign":   {1, fnSign},
		"trim":   {1, fnTrim},
		"upper":  {1, fnUpper},
		"lower":  {1, fnLower},
		"len":    {1, fnLen},
		"substr": {3, fnSubstr},
		"pos":    {2, fnPos},
		"isnum":  {1, fnIsNum},
		"isint":  {1, fnIsInt},
		"isempty": {1, fnIsEmpty},
		"isdate": {1, fnIsDate},
		"bool":   {1, fnBool},
		"random": {0, r.fnRandom},
		"today":  {0, fnToday},
		"now":    {0, fnNow},
		"streq":  {2, fnStreq},
		"match":  {2, fnMatch},
		"env":    {1, fnEnv},
		"min":    {2, fnMin},
		"max":    {2, fnMax},
		"day":    {1, fnDay},
		"month":  {1, fnMonth},
		"year":   {1, fnYear},
		"index":  {2, fnIndex},
		"pick":   {2, fnPick},
		"field":  {1, fnField},
		"find":   {1, fnFind},
		"round":  {2, fnRound},
	}
	return r
}

func fnIf(_ *Context, a []string) (string, error) {
	if Truthy(a[0]) {
		return a[1], nil
	}
	return a[2], nil
}

func fnNot(_ *Context, a []string) (string, error) { return boolStr(!Truthy(a[0])), nil }

func fnInt(_ *Context, a []string) (string, error) {
	return strconv.FormatInt(int64(toNum(a[0])), 10), nil
}

func fnAbs(_ *Context, a []string) (string, error) { return numStr(math.Abs(toNum(a[0]))), nil }

func fnSign(_ *Context, a []string) (string, error) {
	v := toNum(a[0])
	switch {
	case v > 0:
		return "1", nil
	case v < 0:
		return "-1", nil
	default:
		return "0", nil
	}
}

func fnTrim(_ *Context, a []string) (string, error) { return strings.TrimSpace(a[0]), nil }
func fnUpper(_ *Context, a []string) (string, error) { return strings.ToUpper(a[0]), nil }
func fnLower(_ *Context, a []string) (string, error) { return strings.ToLower(a[0]), nil }
func fnLen(_ *Context, a []string) (string, error) {
	return strconv.Itoa(len(a[0])), nil
}

func fnSubstr(_ *Context, a []string) (string, error) {
	s := a[0]
	start := int(toNum(a[1]))
	length := int(toNum(a[2]))
	if start < 1 {
		start = 1
	}
	if start > len(s)+1 {
		return "", nil
	}
	i := start - 1
	end := i + length
	if end > len(s) {
		end = len(s)
	}
	if end < i {
		return "", nil
	}
	return s[i:end], nil
}

func fnPos(_ *Context, a []string) (string, error) {
	i := strings.Index(a[0], a[1])
	return strconv.Itoa(i + 1), nil
}

func fnIsNum(_ *Context, a []string) (string, error) { return boolStr(IsNumber(a[0])), nil }

func fnIsInt(_ *Context, a []string) (string, error) {
	if !IsNumber(a[0]) {
		return "0", nil
	}
	f := toNum(a[0])
	return boolStr(f == math.Trunc(f)), nil
}

func fnIsEmpty(_ *Context, a []string) (string, error) { return boolStr(a[0] == ""), nil }

func fnIsDate(_ *Context, a []string) (string, error) {
	_, err := parseISODate(a[0])
	return boolStr(err == nil), nil
}

func fnBool(_ *Context, a []string) (string, error) { return boolStr(Truthy(a[0])), nil }

func (r *Registry) fnRandom(_ *Context, _ []string) (string, error) {
	return numStr(r.random()), nil
}

func fnToday(_ *Context, _ []string) (string, error) {
	return time.Now().Format("2006-01-02"), nil
}

func fnNow(_ *Context, _ []string) (string, error) {
	return time.Now().Format("15:04:05"), nil
}

func fnStreq(_ *Context, a []string) (string, error) {
	return boolStr(strings.EqualFold(a[0], a[1])), nil
}

func fnMatch(_ *Context, a []string) (string, error) {
	re, err := regexp2.Compile(a[1], 0)
	if err != nil {
		return "", &EvalError{"match: " + err.Error()}
	}
	ok, err := re.MatchString(a[0])
	if err != nil {
		return "", &EvalError{"match: " + err.Error()}
	}
	return boolStr(ok), nil
}

func fnEnv(_ *Context, a []string) (string, error) { return os.Getenv(a[0]), nil }

func fnMin(_ *Context, a []string) (string, error) { return minmax(a[0], a[1], true), nil }
func fnMax(_ *Context, a []string) (string, error) { return minmax(a[0], a[1], false), nil }

func minmax(a, b string, wantMin bool) string {
	if IsNumber(a) && IsNumber(b) {
		x, y := toNum(a), toNum(b)
		if (x < y) == wantMin {
			return a
		}
		return b
	}
	if (a < b) == wantMin {
		return a
	}
	return b
}

func parseISODate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// IsISODate reports whether s parses as a YYYY-MM-DD date, the same
// test the isdate() builtin uses; exported for validate's is_date rule.
func IsISODate(s string) bool {
	_, err := parseISODate(s)
	return err == nil
}

func fnDay(_ *Context, a []string) (string, error) {
	t, err := parseISODate(a[0])
	if err != nil {
		return "", &EvalError{"day: " + err.Error()}
	}
	return strconv.Itoa(t.Day()), nil
}

func fnMonth(_ *Context, a []string) (string, error) {
	t, err := parseISODate(a[0])
	if err != nil {
		return "", &EvalError{"month: " + err.Error()}
	}
	return strconv.Itoa(int(t.Month())), nil
}

func fnYear(_ *Context, a []string) (string, error) {
	t, err := parseISODate(a[0])
	if err != nil {
		return "", &EvalError{"year: " + err.Error()}
	}
	return strconv.Itoa(t.Year()), nil
}

func splitCSVList(s string) []string {
	return strings.Split(s, ",")
}

func fnIndex(_ *Context, a []string) (string, error) {
	items := splitCSVList(a[1])
	for i, it := range items {
		if it == a[0] {
			return strconv.Itoa(i + 1), nil
		}
	}
	return "0", nil
}

func fnPick(_ *Context, a []string) (string, error) {
	n := int(toNum(a[0]))
	items := splitCSVList(a[1])
	if n < 1 || n > len(items) {
		return "", nil
	}
	return items[n-1], nil
}

func fnField(ctx *Context, a []string) (string, error) {
	n := int(toNum(a[0]))
	if n < 1 || n > len(ctx.Row) {
		return "", nil
	}
	return ctx.Row[n-1], nil
}

func fnFind(ctx *Context, a []string) (string, error) {
	re, err := regexp2.Compile(a[0], 0)
	if err != nil {
		return "", &EvalError{"find: " + err.Error()}
	}
	for i, f := range ctx.Row {
		ok, err := re.MatchString(f)
		if err != nil {
			return "", &EvalError{"find: " + err.Error()}
		}
		if ok {
			return strconv.Itoa(i + 1), nil
		}
	}
	return "0", nil
}

func fnRound(_ *Context, a []string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(a[0]))
	if err != nil {
		d = decimal.NewFromFloat(toNum(a[0]))
	}
	digits := int32(toNum(a[1]))
	return d.Round(digits).String(), nil
}
