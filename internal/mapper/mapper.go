package mapper

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
)

// DefaultExcluded are the fields a caller may never set through the mapper.
var DefaultExcluded = []string{"id", "created_at", "updated_at"}

const maxRelatedDepth = 2

var timeType = reflect.TypeOf(time.Time{})

type column struct {
	name  string
	index int
}

type relation struct {
	name  string
	index int
}

// columnsOf 解析模型的列集合：导出标量字段（含 time.Time / 指针标量）。
// 列名优先取 gorm:"column:x"，否则按字段名 snake_case。
func columnsOf(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // 未导出
			continue
		}
		if isRelationField(f.Type) {
			continue
		}
		cols = append(cols, column{name: columnName(f), index: i})
	}
	return cols
}

func relationsOf(t reflect.Type) []relation {
	var rels []relation
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		if !isRelationField(f.Type) {
			continue
		}
		rels = append(rels, relation{name: columnName(f), index: i})
	}
	return rels
}

func isRelationField(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return t != timeType
	case reflect.Slice:
		e := t.Elem()
		if e.Kind() == reflect.Ptr {
			e = e.Elem()
		}
		return e.Kind() == reflect.Struct && e != timeType
	}
	return false
}

func columnName(f reflect.StructField) string {
	for _, part := range strings.Split(f.Tag.Get("gorm"), ";") {
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return toSnake(f.Name)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			// 连续大写（如 ID）不重复插下划线
			if i > 0 && !unicode.IsUpper(rune(s[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func structValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("mapper: need non-nil struct pointer, got %T", v)
	}
	return rv.Elem(), nil
}

func excludeSet(excluded []string) map[string]struct{} {
	if excluded == nil {
		excluded = DefaultExcluded
	}
	set := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		set[e] = struct{}{}
	}
	return set
}

// ToEntity copies named fields from source (a map[string]any or another
// struct of compatible shape) onto target. Fields not known to the target
// are silently ignored; excluded fields are never written. Null values are
// only written when includeNulls is set. A nil excluded list means
// DefaultExcluded.
func ToEntity(source any, target any, excluded []string, includeNulls bool) error {
	tv, err := structValue(target)
	if err != nil {
		return err
	}
	skip := excludeSet(excluded)

	byName := map[string]int{}
	for _, c := range columnsOf(tv.Type()) {
		byName[c.name] = c.index
	}

	if m, ok := source.(map[string]any); ok {
		for k, v := range m {
			idx, known := byName[k]
			if !known {
				continue // forward-compatible payloads
			}
			if _, ex := skip[k]; ex {
				continue
			}
			if v == nil && !includeNulls {
				continue
			}
			if err := assign(tv.Field(idx), v, k); err != nil {
				return err
			}
		}
		return nil
	}

	sv := reflect.ValueOf(source)
	if sv.Kind() == reflect.Ptr {
		if sv.IsNil() {
			return fmt.Errorf("mapper: nil source")
		}
		sv = sv.Elem()
	}
	if sv.Kind() != reflect.Struct {
		return fmt.Errorf("mapper: unsupported source %T", source)
	}
	for _, c := range columnsOf(sv.Type()) {
		idx, known := byName[c.name]
		if !known {
			continue
		}
		if _, ex := skip[c.name]; ex {
			continue
		}
		val := fieldValue(sv.Field(c.index))
		if val == nil && !includeNulls {
			continue
		}
		if err := assign(tv.Field(idx), val, c.name); err != nil {
			return err
		}
	}
	return nil
}

// ToMap renders an entity as a field-name→value map. Times become RFC3339
// strings, nil pointers become nil. With includeRelated, association fields
// (struct / slice-of-struct) are expanded one level using the same exclusion
// list; a depth guard keeps the expansion from chasing cyclic graphs.
// Unlike ToEntity, a nil exclusion list excludes nothing: DTOs keep their id.
func ToMap(entity any, excluded []string, includeRelated bool) map[string]any {
	rv := reflect.ValueOf(entity)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		skip[e] = struct{}{}
	}
	return toMap(rv, skip, includeRelated, 0)
}

func toMap(rv reflect.Value, skip map[string]struct{}, related bool, depth int) map[string]any {
	if rv.Kind() != reflect.Struct {
		return nil
	}
	out := map[string]any{}
	for _, c := range columnsOf(rv.Type()) {
		if _, ex := skip[c.name]; ex {
			continue
		}
		out[c.name] = encode(fieldValue(rv.Field(c.index)))
	}
	if !related || depth >= maxRelatedDepth {
		return out
	}
	for _, r := range relationsOf(rv.Type()) {
		if _, ex := skip[r.name]; ex {
			continue
		}
		fv := rv.Field(r.index)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		switch fv.Kind() {
		case reflect.Slice:
			items := make([]map[string]any, 0, fv.Len())
			for i := 0; i < fv.Len(); i++ {
				ev := fv.Index(i)
				if ev.Kind() == reflect.Ptr {
					if ev.IsNil() {
						continue
					}
					ev = ev.Elem()
				}
				items = append(items, toMap(ev, skip, related, depth+1))
			}
			out[r.name] = items
		case reflect.Struct:
			out[r.name] = toMap(fv, skip, related, depth+1)
		}
	}
	return out
}

// Create instantiates a new T and fills it from source.
func Create[T any](source any, excluded []string) (*T, error) {
	out := new(T)
	if err := ToEntity(source, out, excluded, false); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies source onto entity. partial means omitted/null fields stay
// untouched; otherwise nulls overwrite.
func Update(entity any, source any, excluded []string, partial bool) error {
	return ToEntity(source, entity, excluded, !partial)
}

// Clone copies src into a fresh T, always dropping id and timestamps plus
// any extra exclusions.
func Clone[T any](src *T, extraExcluded []string) (*T, error) {
	excluded := append(append([]string{}, DefaultExcluded...), extraExcluded...)
	return Create[T](src, excluded)
}

// Merge combines secondary into primary. With preferPrimary only primary's
// null fields are filled from secondary; otherwise any non-null secondary
// value wins. Nil pointers and zero values count as null.
func Merge(primary any, secondary any, excluded []string, preferPrimary bool) error {
	pv, err := structValue(primary)
	if err != nil {
		return err
	}
	sv := reflect.ValueOf(secondary)
	if sv.Kind() == reflect.Ptr {
		if sv.IsNil() {
			return fmt.Errorf("mapper: nil secondary")
		}
		sv = sv.Elem()
	}
	skip := excludeSet(excluded)

	byName := map[string]int{}
	for _, c := range columnsOf(sv.Type()) {
		byName[c.name] = c.index
	}
	for _, c := range columnsOf(pv.Type()) {
		if _, ex := skip[c.name]; ex {
			continue
		}
		sIdx, ok := byName[c.name]
		if !ok {
			continue
		}
		sVal := fieldValue(sv.Field(sIdx))
		if sVal == nil || isZero(sv.Field(sIdx)) {
			continue
		}
		pf := pv.Field(c.index)
		if preferPrimary && fieldValue(pf) != nil && !isZero(pf) {
			continue
		}
		if err := assign(pf, sVal, c.name); err != nil {
			return err
		}
	}
	return nil
}

// fieldValue 取出列值；nil 指针返回 nil。
func fieldValue(fv reflect.Value) any {
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	return fv.Interface()
}

func isZero(fv reflect.Value) bool {
	if fv.Kind() == reflect.Ptr {
		return fv.IsNil()
	}
	return fv.IsZero()
}

func encode(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}

// assign writes v into the (possibly pointer-typed) field, converting the
// loose types JSON decoding produces: float64 → int columns, RFC3339
// strings → time columns.
func assign(fv reflect.Value, v any, name string) error {
	if v == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	ft := fv.Type()
	ptr := ft.Kind() == reflect.Ptr
	if ptr {
		ft = ft.Elem()
	}

	val, err := coerce(v, ft)
	if err != nil {
		return fmt.Errorf("mapper: field %q: %w", name, err)
	}
	if ptr {
		p := reflect.New(ft)
		p.Elem().Set(val)
		fv.Set(p)
		return nil
	}
	fv.Set(val)
	return nil
}

func coerce(v any, ft reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Zero(ft), nil
		}
		rv = rv.Elem()
	}
	if rv.Type() == ft {
		return rv, nil
	}
	// 时间列：接受 time.Time 或 RFC3339 / 日期字符串
	if ft == timeType {
		if s, ok := rv.Interface().(string); ok {
			for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, s); err == nil {
					return reflect.ValueOf(t), nil
				}
			}
			return reflect.Value{}, fmt.Errorf("cannot parse %q as time", s)
		}
	}
	switch {
	case isNumeric(rv.Kind()) && isNumeric(ft.Kind()):
		return rv.Convert(ft), nil
	case rv.Kind() == reflect.String && ft.Kind() == reflect.String:
		return rv.Convert(ft), nil
	case rv.Kind() == reflect.Bool && ft.Kind() == reflect.Bool:
		return rv.Convert(ft), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %T to %s", v, ft)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
